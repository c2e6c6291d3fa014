package store

import (
	"context"
	"sort"
	"sync"
)

// memoryCore holds the shared state behind every in-memory repository; the
// repositories themselves are thin typed views over it; a Session's Get and
// a Deck's Get cannot share one method name on one Go type, so each
// repository gets its own small wrapper around the shared core.
type memoryCore struct {
	mu                  sync.RWMutex
	sessions            map[string]Session
	transcripts         map[string][]Transcript
	decks               map[string]Deck
	theses              map[string]Thesis // keyed by orgID
	messages            map[string][]Message
	supportingDocuments map[string][]SupportingDocument
	dataRoomDocuments   map[string][]DataRoomDocument
	organizations       map[string]Organization
	users               map[string]User
}

func newMemoryCore() *memoryCore {
	return &memoryCore{
		sessions:            make(map[string]Session),
		transcripts:         make(map[string][]Transcript),
		decks:               make(map[string]Deck),
		theses:              make(map[string]Thesis),
		messages:            make(map[string][]Message),
		supportingDocuments: make(map[string][]SupportingDocument),
		dataRoomDocuments:   make(map[string][]DataRoomDocument),
		organizations:       make(map[string]Organization),
		users:               make(map[string]User),
	}
}

// Memory bundles every in-memory repository over one shared core, plus
// Seed* helpers for populating read-mostly fixtures in tests.
type Memory struct {
	core                *memoryCore
	SessionsRepo            *MemorySessions
	TranscriptsRepo         *MemoryTranscripts
	DecksRepo               *MemoryDecks
	ThesesRepo              *MemoryTheses
	MessagesRepo            *MemoryMessages
	SupportingDocumentsRepo *MemorySupportingDocuments
	DataRoomDocumentsRepo   *MemoryDataRoomDocuments
	OrganizationsRepo       *MemoryOrganizations
	UsersRepo               *MemoryUsers
}

func NewMemory() *Memory {
	core := newMemoryCore()
	return &Memory{
		core:                    core,
		SessionsRepo:            &MemorySessions{core},
		TranscriptsRepo:         &MemoryTranscripts{core},
		DecksRepo:               &MemoryDecks{core},
		ThesesRepo:              &MemoryTheses{core},
		MessagesRepo:            &MemoryMessages{core},
		SupportingDocumentsRepo: &MemorySupportingDocuments{core},
		DataRoomDocumentsRepo:   &MemoryDataRoomDocuments{core},
		OrganizationsRepo:       &MemoryOrganizations{core},
		UsersRepo:               &MemoryUsers{core},
	}
}

// NewMemoryStore returns a Store wired entirely to in-memory repositories
// sharing one Memory instance, so fixtures seeded on it are visible across
// all of them.
func NewMemoryStore() (*Store, *Memory) {
	m := NewMemory()
	return &Store{
		Sessions:            m.SessionsRepo,
		Transcripts:         m.TranscriptsRepo,
		Decks:               m.DecksRepo,
		Theses:              m.ThesesRepo,
		Messages:            m.MessagesRepo,
		SupportingDocuments: m.SupportingDocumentsRepo,
		DataRoomDocuments:   m.DataRoomDocumentsRepo,
		Organizations:       m.OrganizationsRepo,
		Users:               m.UsersRepo,
	}, m
}

func (m *Memory) SeedDeck(d Deck) {
	m.core.mu.Lock()
	defer m.core.mu.Unlock()
	m.core.decks[d.ID] = d
}

func (m *Memory) SeedThesis(orgID string, t Thesis) {
	m.core.mu.Lock()
	defer m.core.mu.Unlock()
	m.core.theses[orgID] = t
}

func (m *Memory) SeedMessages(deckID string, msgs []Message) {
	m.core.mu.Lock()
	defer m.core.mu.Unlock()
	m.core.messages[deckID] = msgs
}

func (m *Memory) SeedSupportingDocuments(deckID string, docs []SupportingDocument) {
	m.core.mu.Lock()
	defer m.core.mu.Unlock()
	m.core.supportingDocuments[deckID] = docs
}

func (m *Memory) SeedDataRoomDocuments(deckID string, docs []DataRoomDocument) {
	m.core.mu.Lock()
	defer m.core.mu.Unlock()
	m.core.dataRoomDocuments[deckID] = docs
}

func (m *Memory) SeedOrganization(o Organization) {
	m.core.mu.Lock()
	defer m.core.mu.Unlock()
	m.core.organizations[o.ID] = o
}

func (m *Memory) SeedUser(u User) {
	m.core.mu.Lock()
	defer m.core.mu.Unlock()
	m.core.users[u.ID] = u
}

type MemorySessions struct{ core *memoryCore }

func (r *MemorySessions) Create(ctx context.Context, s *Session) error {
	r.core.mu.Lock()
	defer r.core.mu.Unlock()
	r.core.sessions[s.ID] = *s
	return nil
}

func (r *MemorySessions) Get(ctx context.Context, id string) (*Session, error) {
	r.core.mu.RLock()
	defer r.core.mu.RUnlock()
	s, ok := r.core.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemorySessions) Update(ctx context.Context, s *Session) error {
	r.core.mu.Lock()
	defer r.core.mu.Unlock()
	if _, ok := r.core.sessions[s.ID]; !ok {
		return ErrNotFound
	}
	r.core.sessions[s.ID] = *s
	return nil
}

type MemoryTranscripts struct{ core *memoryCore }

func (r *MemoryTranscripts) Append(ctx context.Context, t *Transcript) error {
	r.core.mu.Lock()
	defer r.core.mu.Unlock()
	r.core.transcripts[t.SessionID] = append(r.core.transcripts[t.SessionID], *t)
	return nil
}

func (r *MemoryTranscripts) ListBySession(ctx context.Context, sessionID string) ([]Transcript, error) {
	r.core.mu.RLock()
	defer r.core.mu.RUnlock()
	out := make([]Transcript, len(r.core.transcripts[sessionID]))
	copy(out, r.core.transcripts[sessionID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

type MemoryDecks struct{ core *memoryCore }

func (r *MemoryDecks) Get(ctx context.Context, id string) (*Deck, error) {
	r.core.mu.RLock()
	defer r.core.mu.RUnlock()
	d, ok := r.core.decks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

type MemoryTheses struct{ core *memoryCore }

func (r *MemoryTheses) GetByOrg(ctx context.Context, orgID string) (*Thesis, error) {
	r.core.mu.RLock()
	defer r.core.mu.RUnlock()
	t, ok := r.core.theses[orgID]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

type MemoryMessages struct{ core *memoryCore }

func (r *MemoryMessages) ListByDeck(ctx context.Context, deckID string) ([]Message, error) {
	r.core.mu.RLock()
	defer r.core.mu.RUnlock()
	out := make([]Message, len(r.core.messages[deckID]))
	copy(out, r.core.messages[deckID])
	return out, nil
}

type MemorySupportingDocuments struct{ core *memoryCore }

func (r *MemorySupportingDocuments) ListByDeck(ctx context.Context, deckID string) ([]SupportingDocument, error) {
	r.core.mu.RLock()
	defer r.core.mu.RUnlock()
	out := make([]SupportingDocument, len(r.core.supportingDocuments[deckID]))
	copy(out, r.core.supportingDocuments[deckID])
	return out, nil
}

type MemoryDataRoomDocuments struct{ core *memoryCore }

func (r *MemoryDataRoomDocuments) ListByDeck(ctx context.Context, deckID string) ([]DataRoomDocument, error) {
	r.core.mu.RLock()
	defer r.core.mu.RUnlock()
	out := make([]DataRoomDocument, len(r.core.dataRoomDocuments[deckID]))
	copy(out, r.core.dataRoomDocuments[deckID])
	return out, nil
}

type MemoryOrganizations struct{ core *memoryCore }

func (r *MemoryOrganizations) Get(ctx context.Context, id string) (*Organization, error) {
	r.core.mu.RLock()
	defer r.core.mu.RUnlock()
	o, ok := r.core.organizations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

type MemoryUsers struct{ core *memoryCore }

func (r *MemoryUsers) Get(ctx context.Context, id string) (*User, error) {
	r.core.mu.RLock()
	defer r.core.mu.RUnlock()
	u, ok := r.core.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}
