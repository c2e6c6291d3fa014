package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/pitchloop-ai/session-orchestrator/pkg/transcript"
)

// GroqSTT is a transcript.Provider backed by Groq's OpenAI-compatible
// Whisper transcriptions endpoint.
type GroqSTT struct {
	apiKey string
	url    string
	model  string
}

func NewGroqSTT(apiKey string, model string) *GroqSTT {
	if model == "" {
		model = "whisper-large-v3-turbo"
	}
	return &GroqSTT{
		apiKey: apiKey,
		url:    "https://api.groq.com/openai/v1/audio/transcriptions",
		model:  model,
	}
}

func (s *GroqSTT) Name() string {
	return "groq-stt"
}

func (s *GroqSTT) TranscribeVerbose(ctx context.Context, wav []byte, opts transcript.Options) (transcript.VerboseResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", s.model); err != nil {
		return transcript.VerboseResult{}, err
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return transcript.VerboseResult{}, err
	}
	if opts.Language != "" {
		if err := writer.WriteField("language", opts.Language); err != nil {
			return transcript.VerboseResult{}, err
		}
	}

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return transcript.VerboseResult{}, err
	}
	if _, err := io.Copy(part, bytes.NewReader(wav)); err != nil {
		return transcript.VerboseResult{}, err
	}
	if err := writer.Close(); err != nil {
		return transcript.VerboseResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.url, body)
	if err != nil {
		return transcript.VerboseResult{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return transcript.VerboseResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return transcript.VerboseResult{}, &transcript.StatusError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var result struct {
		Text     string  `json:"text"`
		Language string  `json:"language"`
		Duration float64 `json:"duration"`
		Segments []struct {
			Start float64 `json:"start"`
			End   float64 `json:"end"`
			Text  string  `json:"text"`
		} `json:"segments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return transcript.VerboseResult{}, err
	}

	var segments []transcript.Segment
	for _, seg := range result.Segments {
		segments = append(segments, transcript.Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}

	return transcript.VerboseResult{
		Text:     result.Text,
		Language: result.Language,
		Duration: result.Duration,
		Segments: segments,
	}, nil
}
