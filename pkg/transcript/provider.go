// Package transcript defines the contract vendor speech-to-text adapters
// implement and the rolling/full-session transcription policies built on
// top of it.
package transcript

import "context"

// Segment is one diarized span within a VerboseResult.
type Segment struct {
	Start   float64
	End     float64
	Text    string
	Speaker string
}

// VerboseResult is the outcome of a diarized transcription request.
type VerboseResult struct {
	Text     string
	Language string
	Duration float64
	Segments []Segment
}

// Options controls a single transcription request.
type Options struct {
	SampleRate int
	Language   string
	Diarize    bool
}

// Provider is implemented by vendor STT adapters. TranscribeVerbose submits
// a WAV-wrapped PCM buffer and returns segment-level, optionally diarized
// output.
type Provider interface {
	TranscribeVerbose(ctx context.Context, wav []byte, opts Options) (VerboseResult, error)
	Name() string
}
