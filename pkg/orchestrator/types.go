package orchestrator

import "time"

// Logger is the structured logging contract the Service is built against;
// internal/logging provides a zap-backed implementation.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// NoOpLogger discards everything; used where no logger is configured.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, args ...interface{}) {}
func (n *NoOpLogger) Info(msg string, args ...interface{})  {}
func (n *NoOpLogger) Warn(msg string, args ...interface{})  {}
func (n *NoOpLogger) Error(msg string, args ...interface{}) {}

// Socket is the attach-channel connection the Service pushes server events
// through; pkg/wsapi implements it over coder/websocket.
type Socket interface {
	Send(event string, payload interface{}) error
	Close() error
}

// Config carries every tunable the Service's timers and gates read.
type Config struct {
	SampleRate      int
	BytesPerSample  int
	MaxFrameBytes   int
	WatchdogTick    time.Duration
	SilenceTimeout  time.Duration
	RecordingStatusEvery time.Duration
	SuggestionMinQuestions int
	SuggestionMaxQuestions int
}

func DefaultConfig() Config {
	return Config{
		SampleRate:             16000,
		BytesPerSample:         2,
		MaxFrameBytes:          1 << 20,
		WatchdogTick:           30 * time.Second,
		SilenceTimeout:         4 * time.Minute,
		RecordingStatusEvery:   5 * time.Second,
		SuggestionMinQuestions: 3,
		SuggestionMaxQuestions: 5,
	}
}

// Error codes mirrored on the wire "error" event.
const (
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeSessionInactive     = "SESSION_INACTIVE"
	CodeInvalidSession      = "INVALID_SESSION"
	CodeProviderKeyMissing  = "PROVIDER_KEY_MISSING"
	CodeTranscriptionError  = "TRANSCRIPTION_ERROR"
	CodeJoinError           = "JOIN_ERROR"
)

// QuestionView is the wire shape of one suggested question.
type QuestionView struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Answered   bool       `json:"answered"`
	CreatedAt  time.Time  `json:"createdAt"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty"`
}

// Server->client payloads, named for the event they ride on (§6).
type SessionStatusPayload struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type RecordingStatusPayload struct {
	AudioSizeMB              float64 `json:"audioSizeMB"`
	AudioChunks              int     `json:"audioChunks"`
	EstimatedDurationSeconds float64 `json:"estimatedDurationSeconds"`
	Message                  string  `json:"message"`
}

type TranscriptionPayload struct {
	Text         string    `json:"text"`
	IsFinal      bool      `json:"isFinal"`
	Timestamp    time.Time `json:"timestamp"`
	Speaker      string    `json:"speaker,omitempty"`
	SpeakerID    *int      `json:"speakerId,omitempty"`
	LanguageCode string    `json:"languageCode,omitempty"`
}

type SuggestionPayload struct {
	Questions []QuestionView `json:"questions"`
	Context   string         `json:"context"`
	Topics    []string       `json:"topics"`
	Timestamp time.Time      `json:"timestamp"`
}

type SuggestedQuestionsUpdatedPayload struct {
	Questions []QuestionView `json:"questions"`
}

type SessionAutoStoppedPayload struct {
	Reason        string    `json:"reason"`
	EndedAt       time.Time `json:"endedAt"`
	TotalDuration float64   `json:"totalDuration"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type PongPayload struct {
	Timestamp time.Time `json:"timestamp"`
}
