package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pitchloop-ai/session-orchestrator/pkg/transcript"
)

func TestAssemblyAISTTTranscribeVerbose(t *testing.T) {
	var transcriptID = "abc123"
	polls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.assemblyai.com/upload/abc"})
	})
	mux.HandleFunc("/transcript", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]string{"id": transcriptID})
			return
		}
	})
	mux.HandleFunc("/transcript/"+transcriptID, func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 2 {
			json.NewEncoder(w).Encode(map[string]string{"status": "processing"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":         "completed",
			"text":           "hello there",
			"language_code":  "en",
			"audio_duration": 3.5,
			"utterances": []map[string]interface{}{
				{"speaker": "A", "text": "hello there", "start": 0, "end": 1500, "confidence": 0.9},
			},
		})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	s := NewAssemblyAISTT("test-key")
	s.baseURL = server.URL

	result, err := s.TranscribeVerbose(context.Background(), []byte{0, 0}, transcript.Options{Diarize: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "hello there" {
		t.Errorf("expected 'hello there', got %q", result.Text)
	}
	if len(result.Segments) != 1 || result.Segments[0].Speaker != "A" {
		t.Errorf("expected one speaker-A segment, got %v", result.Segments)
	}
	if result.Segments[0].End != 1.5 {
		t.Errorf("expected end 1.5s (1500ms), got %v", result.Segments[0].End)
	}
}

func TestNormalizeSpeakerLabel(t *testing.T) {
	if normalizeSpeakerLabel("") != "Speaker Unknown" {
		t.Error("expected empty speaker to normalize to Speaker Unknown")
	}
	if normalizeSpeakerLabel(strings.ToLower("unknown")) != "Speaker Unknown" {
		t.Error("expected 'unknown' to normalize to Speaker Unknown")
	}
	if normalizeSpeakerLabel("Speaker A") != "Speaker A" {
		t.Error("expected distinct speaker labels to be preserved")
	}
}
