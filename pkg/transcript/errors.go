package transcript

import "errors"

var (
	// ErrAudioTooShort is returned by FullAudio when the cumulative PCM is
	// empty or shorter than 0.25s.
	ErrAudioTooShort = errors.New("audio too short to transcribe")

	// ErrAllChunksFailed is returned when every chunk of a split transcription
	// exhausted its retries.
	ErrAllChunksFailed = errors.New("all audio chunks failed to transcribe")

	ErrNilProvider = errors.New("transcription provider is nil")
)
