// Package store defines the persisted document model and the repository
// interfaces the orchestrator reads and writes through.
package store

import (
	"encoding/json"
	"time"
)

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
	SessionFailed SessionStatus = "failed"
)

type SummaryState string

const (
	SummaryPending   SummaryState = "pending"
	SummaryCompleted SummaryState = "completed"
	SummaryFailed    SummaryState = "failed"
)

// Variant is the tagged-variant replacement for the original "mixed"
// analysis/summary field: either a structured JSON payload or a raw-text
// fallback, never both.
type Variant struct {
	Kind       string          `json:"kind"` // "structured" | "raw_text"
	Structured json.RawMessage `json:"structured,omitempty"`
	RawText    string          `json:"rawText,omitempty"`
}

func StructuredVariant(v json.RawMessage) Variant {
	return Variant{Kind: "structured", Structured: v}
}

func RawTextVariant(text string) Variant {
	return Variant{Kind: "raw_text", RawText: text}
}

// Session is the persisted record of one live pitch meeting.
type Session struct {
	ID                string        `json:"id" db:"id"`
	DeckID            string        `json:"deckId" db:"deck_id"`
	TenantID          string        `json:"tenantId" db:"tenant_id"`
	OwnerID           string        `json:"ownerId" db:"owner_id"`
	Title             string        `json:"title" db:"title"`
	Status            SessionStatus `json:"status" db:"status"`
	StartedAt         time.Time     `json:"startedAt" db:"started_at"`
	EndedAt           *time.Time    `json:"endedAt,omitempty" db:"ended_at"`
	DurationSeconds   *float64      `json:"durationSeconds,omitempty" db:"duration_seconds"`
	DetectedLanguages []string      `json:"detectedLanguages,omitempty" db:"detected_languages"`
	SuggestedQuestions []SuggestedQuestion `json:"suggestedQuestions" db:"-"`
	Summary           *string       `json:"summary,omitempty" db:"summary"`
	SummaryState      SummaryState  `json:"summaryState" db:"summary_state"`
	TranscriptCount   int           `json:"transcriptCount" db:"transcript_count"`
}

// VisibleQuestions returns the session's suggested questions that have not
// been deleted, in their stored order.
func (s *Session) VisibleQuestions() []SuggestedQuestion {
	visible := make([]SuggestedQuestion, 0, len(s.SuggestedQuestions))
	for _, q := range s.SuggestedQuestions {
		if !q.Deleted {
			visible = append(visible, q)
		}
	}
	return visible
}

// SuggestedQuestion is one "next question" candidate embedded in a Session.
type SuggestedQuestion struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Answered   bool       `json:"answered"`
	Deleted    bool       `json:"deleted"`
	CreatedAt  time.Time  `json:"createdAt"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty"`
}

// Transcript is one utterance fragment, partial or final.
type Transcript struct {
	ID           string    `json:"id" db:"id"`
	SessionID    string    `json:"sessionId" db:"session_id"`
	DeckID       string    `json:"deckId" db:"deck_id"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	Text         string    `json:"text" db:"text"`
	Speaker      string    `json:"speaker,omitempty" db:"speaker"`
	SpeakerID    *int      `json:"speakerId,omitempty" db:"speaker_id"`
	IsFinal      bool      `json:"isFinal" db:"is_final"`
	Confidence   *float64  `json:"confidence,omitempty" db:"confidence"`
	LanguageCode string    `json:"languageCode,omitempty" db:"language_code"`
}

// Deck is the subject pitch deck; only the fields the Context Assembler
// consumes are modeled here, the rest is treated as opaque by the core.
type Deck struct {
	ID              string    `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Status          string    `json:"status" db:"status"`
	AnalysisVersion string    `json:"analysisVersion" db:"analysis_version"`
	Analysis        Variant   `json:"analysis" db:"analysis"`
}

// Thesis is the investing firm's structured preference profile.
type Thesis struct {
	ID      string  `json:"id" db:"id"`
	OrgID   string  `json:"orgId" db:"org_id"`
	Profile Variant `json:"profile" db:"profile"`
}

// Message is a prior turn (user query + AI response) surfaced to the
// Context Assembler.
type Message struct {
	ID           string    `json:"id" db:"id"`
	DeckID       string    `json:"deckId" db:"deck_id"`
	UserQuery    string    `json:"userQuery" db:"user_query"`
	AIResponse   string    `json:"aiResponse" db:"ai_response"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// SupportingDocument is a titled/described document attached to a deck. A
// non-empty BlobKey names the underlying file in blobstore; documents with
// no uploaded file (description-only) leave it blank.
type SupportingDocument struct {
	ID          string `json:"id" db:"id"`
	DeckID      string `json:"deckId" db:"deck_id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	BlobKey     string `json:"blobKey,omitempty" db:"blob_key"`
}

// DataRoomDocument is a categorized data-room document with an AI summary.
type DataRoomDocument struct {
	ID        string  `json:"id" db:"id"`
	DeckID    string  `json:"deckId" db:"deck_id"`
	Title     string  `json:"title" db:"title"`
	Category  string  `json:"category" db:"category"`
	AISummary Variant `json:"aiSummary" db:"ai_summary"`
	BlobKey   string  `json:"blobKey,omitempty" db:"blob_key"`
}

// Organization and User are carried for tenancy and key-lookup purposes;
// the core treats their fields beyond ID/EncryptedAPIKeys as opaque.
type Organization struct {
	ID               string `json:"id" db:"id"`
	Name             string `json:"name" db:"name"`
	EncryptedAPIKeys []byte `json:"-" db:"encrypted_api_keys"`
}

type User struct {
	ID   string `json:"id" db:"id"`
	OrgID string `json:"orgId" db:"org_id"`
	Email string `json:"email" db:"email"`
}
