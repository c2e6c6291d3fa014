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

// OpenAISTT is a transcript.Provider backed by OpenAI's Whisper
// transcriptions endpoint. Whisper does not diarize; segments carry
// timestamps only.
type OpenAISTT struct {
	apiKey string
	url    string
	model  string
}

func NewOpenAISTT(apiKey string, model string) *OpenAISTT {
	if model == "" {
		model = "whisper-1"
	}
	return &OpenAISTT{
		apiKey: apiKey,
		url:    "https://api.openai.com/v1/audio/transcriptions",
		model:  model,
	}
}

func (s *OpenAISTT) Name() string {
	return "openai-stt"
}

func (s *OpenAISTT) TranscribeVerbose(ctx context.Context, wav []byte, opts transcript.Options) (transcript.VerboseResult, error) {
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
	if _, err := part.Write(wav); err != nil {
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
