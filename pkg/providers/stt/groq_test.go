package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pitchloop-ai/session-orchestrator/pkg/transcript"
)

func TestGroqSTTTranscribeVerbose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		resp := map[string]interface{}{
			"text":     "groq transcription",
			"language": "en",
			"duration": 1.0,
			"segments": []map[string]interface{}{
				{"start": 0.0, "end": 1.0, "text": "groq transcription"},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	s := &GroqSTT{apiKey: "test-key", url: server.URL, model: "whisper-large-v3-turbo"}

	result, err := s.TranscribeVerbose(context.Background(), []byte{0}, transcript.Options{SampleRate: 16000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Text != "groq transcription" {
		t.Errorf("expected 'groq transcription', got %q", result.Text)
	}

	if s.Name() != "groq-stt" {
		t.Errorf("expected groq-stt, got %s", s.Name())
	}
}
