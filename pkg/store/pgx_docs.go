package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The repositories in this file are read-mostly document lookups; theses and
// data-room documents follow the same JSONB-row shape as PgxDecks, the rest
// scan plain columns. Kept in one file since none carries enough distinct
// query logic to warrant its own.

type PgxTheses struct{ pool *pgxpool.Pool }

func NewPgxTheses(pool *pgxpool.Pool) *PgxTheses { return &PgxTheses{pool: pool} }

func (r *PgxTheses) GetByOrg(ctx context.Context, orgID string) (*Thesis, error) {
	const q = `SELECT document FROM theses WHERE org_id = $1`
	var doc []byte
	if err := r.pool.QueryRow(ctx, q, orgID).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get thesis: %w", err)
	}
	var t Thesis
	if err := json.Unmarshal(doc, &t); err != nil {
		return nil, fmt.Errorf("store: unmarshal thesis: %w", err)
	}
	return &t, nil
}

type PgxMessages struct{ pool *pgxpool.Pool }

func NewPgxMessages(pool *pgxpool.Pool) *PgxMessages { return &PgxMessages{pool: pool} }

func (r *PgxMessages) ListByDeck(ctx context.Context, deckID string) ([]Message, error) {
	const q = `
		SELECT id, deck_id, user_query, ai_response, created_at
		FROM   messages
		WHERE  deck_id = $1
		ORDER  BY created_at ASC`
	rows, err := r.pool.Query(ctx, q, deckID)
	if err != nil {
		return nil, fmt.Errorf("store: list messages: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Message, error) {
		var m Message
		err := row.Scan(&m.ID, &m.DeckID, &m.UserQuery, &m.AIResponse, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("store: scan messages: %w", err)
	}
	if results == nil {
		results = []Message{}
	}
	return results, nil
}

type PgxSupportingDocuments struct{ pool *pgxpool.Pool }

func NewPgxSupportingDocuments(pool *pgxpool.Pool) *PgxSupportingDocuments {
	return &PgxSupportingDocuments{pool: pool}
}

func (r *PgxSupportingDocuments) ListByDeck(ctx context.Context, deckID string) ([]SupportingDocument, error) {
	const q = `
		SELECT id, deck_id, title, description, blob_key
		FROM   supporting_documents
		WHERE  deck_id = $1
		ORDER  BY title ASC`
	rows, err := r.pool.Query(ctx, q, deckID)
	if err != nil {
		return nil, fmt.Errorf("store: list supporting documents: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SupportingDocument, error) {
		var d SupportingDocument
		err := row.Scan(&d.ID, &d.DeckID, &d.Title, &d.Description, &d.BlobKey)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("store: scan supporting documents: %w", err)
	}
	if results == nil {
		results = []SupportingDocument{}
	}
	return results, nil
}

type PgxDataRoomDocuments struct{ pool *pgxpool.Pool }

func NewPgxDataRoomDocuments(pool *pgxpool.Pool) *PgxDataRoomDocuments {
	return &PgxDataRoomDocuments{pool: pool}
}

func (r *PgxDataRoomDocuments) ListByDeck(ctx context.Context, deckID string) ([]DataRoomDocument, error) {
	const q = `SELECT document FROM data_room_documents WHERE deck_id = $1 ORDER BY title ASC`
	rows, err := r.pool.Query(ctx, q, deckID)
	if err != nil {
		return nil, fmt.Errorf("store: list data room documents: %w", err)
	}
	defer rows.Close()

	var results []DataRoomDocument
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("store: scan data room document: %w", err)
		}
		var d DataRoomDocument
		if err := json.Unmarshal(doc, &d); err != nil {
			return nil, fmt.Errorf("store: unmarshal data room document: %w", err)
		}
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if results == nil {
		results = []DataRoomDocument{}
	}
	return results, nil
}

type PgxOrganizations struct{ pool *pgxpool.Pool }

func NewPgxOrganizations(pool *pgxpool.Pool) *PgxOrganizations { return &PgxOrganizations{pool: pool} }

func (r *PgxOrganizations) Get(ctx context.Context, id string) (*Organization, error) {
	const q = `SELECT id, name, encrypted_api_keys FROM organizations WHERE id = $1`
	var org Organization
	if err := r.pool.QueryRow(ctx, q, id).Scan(&org.ID, &org.Name, &org.EncryptedAPIKeys); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get organization: %w", err)
	}
	return &org, nil
}

type PgxUsers struct{ pool *pgxpool.Pool }

func NewPgxUsers(pool *pgxpool.Pool) *PgxUsers { return &PgxUsers{pool: pool} }

func (r *PgxUsers) Get(ctx context.Context, id string) (*User, error) {
	const q = `SELECT id, org_id, email FROM users WHERE id = $1`
	var u User
	if err := r.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.OrgID, &u.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get user: %w", err)
	}
	return &u, nil
}
