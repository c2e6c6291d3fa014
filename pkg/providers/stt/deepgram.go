package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pitchloop-ai/session-orchestrator/pkg/transcript"
)

// DeepgramSTT is a transcript.Provider backed by Deepgram's prerecorded
// /listen endpoint, using its native word-level diarization.
type DeepgramSTT struct {
	apiKey string
	url    string
}

func NewDeepgramSTT(apiKey string) *DeepgramSTT {
	return &DeepgramSTT{
		apiKey: apiKey,
		url:    "https://api.deepgram.com/v1/listen",
	}
}

func (s *DeepgramSTT) Name() string {
	return "deepgram-stt"
}

func (s *DeepgramSTT) TranscribeVerbose(ctx context.Context, wav []byte, opts transcript.Options) (transcript.VerboseResult, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return transcript.VerboseResult{}, err
	}

	params := u.Query()
	params.Set("model", "nova-2")
	params.Set("smart_format", "true")
	params.Set("utterances", "true")
	if opts.Diarize {
		params.Set("diarize", "true")
	}
	if opts.Language != "" {
		params.Set("language", opts.Language)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), bytes.NewReader(wav))
	if err != nil {
		return transcript.VerboseResult{}, err
	}
	req.Header.Set("Authorization", "Token "+s.apiKey)
	req.Header.Set("Content-Type", "audio/wav")

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
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string `json:"transcript"`
					Words      []struct {
						Word    string  `json:"word"`
						Start   float64 `json:"start"`
						End     float64 `json:"end"`
						Speaker int     `json:"speaker"`
					} `json:"words"`
				} `json:"alternatives"`
				DetectedLanguage string `json:"detected_language"`
			} `json:"channels"`
			Utterances []struct {
				Start     float64 `json:"start"`
				End       float64 `json:"end"`
				Transcript string `json:"transcript"`
				Speaker   int     `json:"speaker"`
			} `json:"utterances"`
		} `json:"results"`
		Metadata struct {
			Duration float64 `json:"duration"`
		} `json:"metadata"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return transcript.VerboseResult{}, err
	}

	if len(result.Results.Channels) == 0 || len(result.Results.Channels[0].Alternatives) == 0 {
		return transcript.VerboseResult{}, fmt.Errorf("deepgram returned no alternatives")
	}
	alt := result.Results.Channels[0].Alternatives[0]

	var segments []transcript.Segment
	for _, u := range result.Results.Utterances {
		segments = append(segments, transcript.Segment{
			Start:   u.Start,
			End:     u.End,
			Text:    u.Transcript,
			Speaker: strconv.Itoa(u.Speaker),
		})
	}

	return transcript.VerboseResult{
		Text:     alt.Transcript,
		Language: result.Results.Channels[0].DetectedLanguage,
		Duration: result.Metadata.Duration,
		Segments: segments,
	}, nil
}
