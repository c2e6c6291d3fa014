package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by point lookups that find no matching row.
var ErrNotFound = errors.New("store: not found")

// PgxSessions is a Sessions repository backed by a JSONB document column,
// matching spec's "opaque document store with repositories" persistence
// shape while still allowing indexed lookups on deck_id/status.
type PgxSessions struct {
	pool *pgxpool.Pool
}

func NewPgxSessions(pool *pgxpool.Pool) *PgxSessions {
	return &PgxSessions{pool: pool}
}

func (r *PgxSessions) Create(ctx context.Context, s *Session) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("store: marshal session: %w", err)
	}
	const q = `
		INSERT INTO sessions (id, deck_id, tenant_id, status, document)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.pool.Exec(ctx, q, s.ID, s.DeckID, s.TenantID, s.Status, doc); err != nil {
		return fmt.Errorf("store: create session: %w", err)
	}
	return nil
}

func (r *PgxSessions) Get(ctx context.Context, id string) (*Session, error) {
	const q = `SELECT document FROM sessions WHERE id = $1`
	var doc []byte
	if err := r.pool.QueryRow(ctx, q, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("store: unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *PgxSessions) Update(ctx context.Context, s *Session) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("store: marshal session: %w", err)
	}
	const q = `
		UPDATE sessions SET status = $2, deck_id = $3, document = $4
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, s.ID, s.Status, s.DeckID, doc)
	if err != nil {
		return fmt.Errorf("store: update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PgxTranscripts is a Transcripts repository indexed by (session_id, timestamp).
type PgxTranscripts struct {
	pool *pgxpool.Pool
}

func NewPgxTranscripts(pool *pgxpool.Pool) *PgxTranscripts {
	return &PgxTranscripts{pool: pool}
}

func (r *PgxTranscripts) Append(ctx context.Context, t *Transcript) error {
	const q = `
		INSERT INTO transcripts
		    (id, session_id, deck_id, timestamp, text, speaker, speaker_id, is_final, confidence, language_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.pool.Exec(ctx, q,
		t.ID, t.SessionID, t.DeckID, t.Timestamp, t.Text, t.Speaker, t.SpeakerID, t.IsFinal, t.Confidence, t.LanguageCode,
	)
	if err != nil {
		return fmt.Errorf("store: append transcript: %w", err)
	}
	return nil
}

func (r *PgxTranscripts) ListBySession(ctx context.Context, sessionID string) ([]Transcript, error) {
	const q = `
		SELECT id, session_id, deck_id, timestamp, text, speaker, speaker_id, is_final, confidence, language_code
		FROM   transcripts
		WHERE  session_id = $1
		ORDER  BY timestamp ASC`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: list transcripts: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Transcript, error) {
		var t Transcript
		err := row.Scan(&t.ID, &t.SessionID, &t.DeckID, &t.Timestamp, &t.Text, &t.Speaker, &t.SpeakerID, &t.IsFinal, &t.Confidence, &t.LanguageCode)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("store: scan transcripts: %w", err)
	}
	if results == nil {
		results = []Transcript{}
	}
	return results, nil
}

// PgxDecks is a read-mostly Decks repository over a JSONB document column.
type PgxDecks struct {
	pool *pgxpool.Pool
}

func NewPgxDecks(pool *pgxpool.Pool) *PgxDecks {
	return &PgxDecks{pool: pool}
}

func (r *PgxDecks) Get(ctx context.Context, id string) (*Deck, error) {
	const q = `SELECT document FROM decks WHERE id = $1`
	var doc []byte
	if err := r.pool.QueryRow(ctx, q, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get deck: %w", err)
	}
	var d Deck
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("store: unmarshal deck: %w", err)
	}
	return &d, nil
}
