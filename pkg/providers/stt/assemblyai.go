package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pitchloop-ai/session-orchestrator/pkg/transcript"
)

const pollInterval = 2 * time.Second

// AssemblyAISTT is a diarization-capable transcript.Provider backed by
// AssemblyAI's upload/submit/poll transcription API.
type AssemblyAISTT struct {
	apiKey  string
	baseURL string
}

func NewAssemblyAISTT(apiKey string) *AssemblyAISTT {
	return &AssemblyAISTT{
		apiKey:  apiKey,
		baseURL: "https://api.assemblyai.com/v2",
	}
}

func (s *AssemblyAISTT) Name() string {
	return "assemblyai-stt"
}

func (s *AssemblyAISTT) TranscribeVerbose(ctx context.Context, wav []byte, opts transcript.Options) (transcript.VerboseResult, error) {
	uploadURL, err := s.upload(ctx, wav)
	if err != nil {
		return transcript.VerboseResult{}, err
	}

	transcriptID, err := s.submit(ctx, uploadURL, opts)
	if err != nil {
		return transcript.VerboseResult{}, err
	}

	return s.pollForCompletion(ctx, transcriptID)
}

func (s *AssemblyAISTT) upload(ctx context.Context, wav []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/upload", bytes.NewReader(wav))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", s.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &transcript.StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.UploadURL, nil
}

func (s *AssemblyAISTT) submit(ctx context.Context, uploadURL string, opts transcript.Options) (string, error) {
	payload := map[string]interface{}{
		"audio_url":      uploadURL,
		"speaker_labels": opts.Diarize,
		"punctuate":      true,
		"format_text":    true,
	}
	if opts.Language != "" {
		payload["language_code"] = opts.Language
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &transcript.StatusError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.ID, nil
}

type assemblyUtterance struct {
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence"`
}

type assemblyTranscript struct {
	Status        string              `json:"status"`
	Error         string              `json:"error"`
	Text          string              `json:"text"`
	LanguageCode  string              `json:"language_code"`
	AudioDuration float64             `json:"audio_duration"`
	Utterances    []assemblyUtterance `json:"utterances"`
}

func (s *AssemblyAISTT) pollForCompletion(ctx context.Context, id string) (transcript.VerboseResult, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return transcript.VerboseResult{}, ctx.Err()
		case <-ticker.C:
			t, status, err := s.getTranscript(ctx, id)
			if err != nil {
				return transcript.VerboseResult{}, err
			}
			switch status {
			case "completed":
				return convertAssemblyTranscript(t), nil
			case "error":
				return transcript.VerboseResult{}, fmt.Errorf("assemblyai transcription failed: %s", t.Error)
			}
		}
	}
}

func (s *AssemblyAISTT) getTranscript(ctx context.Context, id string) (assemblyTranscript, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/transcript/"+id, nil)
	if err != nil {
		return assemblyTranscript{}, "", err
	}
	req.Header.Set("Authorization", s.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return assemblyTranscript{}, "", err
	}
	defer resp.Body.Close()

	var t assemblyTranscript
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return assemblyTranscript{}, "", err
	}
	return t, t.Status, nil
}

func convertAssemblyTranscript(t assemblyTranscript) transcript.VerboseResult {
	var segments []transcript.Segment
	for _, u := range t.Utterances {
		if strings.TrimSpace(u.Text) == "" {
			continue
		}
		segments = append(segments, transcript.Segment{
			Start:   float64(u.Start) / 1000.0,
			End:     float64(u.End) / 1000.0,
			Text:    u.Text,
			Speaker: normalizeSpeakerLabel(u.Speaker),
		})
	}
	if len(segments) == 0 && t.Text != "" {
		segments = append(segments, transcript.Segment{
			Start: 0,
			End:   t.AudioDuration,
			Text:  t.Text,
		})
	}

	return transcript.VerboseResult{
		Text:     t.Text,
		Language: t.LanguageCode,
		Duration: t.AudioDuration,
		Segments: segments,
	}
}

func normalizeSpeakerLabel(speaker string) string {
	speaker = strings.TrimSpace(speaker)
	if speaker == "" || speaker == "speaker_unknown" || speaker == "unknown" {
		return "Speaker Unknown"
	}
	return speaker
}
