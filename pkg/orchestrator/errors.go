package orchestrator

import "errors"

var (
	// ErrSessionNotFound is returned when a session id matches no persisted
	// Session row.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionInactive is returned when attaching to a session that has
	// already reached Ended/Failed — reconnect after finalization is
	// refused rather than guessed at.
	ErrSessionInactive = errors.New("session is no longer active")

	// ErrInvalidSession is returned for a structurally invalid attach
	// request (e.g. empty session id).
	ErrInvalidSession = errors.New("invalid session")

	// ErrProviderKeyMissing is returned when no transcription provider key
	// is configured for a session's tenant, refusing the Recording
	// transition rather than entering it half-configured.
	ErrProviderKeyMissing = errors.New("transcription provider key missing")

	// ErrTranscriptionFailed wraps a surfaced (non-fatal) streaming
	// transcription error.
	ErrTranscriptionFailed = errors.New("speech-to-text transcription failed")

	// ErrNilProvider guards construction paths that require a non-nil
	// provider.
	ErrNilProvider = errors.New("required provider is nil")
)
