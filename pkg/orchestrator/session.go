package orchestrator

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pitchloop-ai/session-orchestrator/pkg/store"
	"github.com/pitchloop-ai/session-orchestrator/pkg/transcript"
)

// recentFinal is one final-transcript entry kept for the rolling
// suggestion-gate word count window (§4.5).
type recentFinal struct {
	text string
	at   time.Time
}

// sessionState is the in-memory-only counterpart to a persisted Session row
// (spec §3). It is exclusively owned by the Service; readers obtain
// snapshots under mu but never hold a reference across a suspension point.
type sessionState struct {
	mu sync.Mutex

	id       string
	tenantID string
	deckID   string

	session *store.Session // cached mirror of the persisted row

	socket Socket

	pcm            bytes.Buffer
	framesReceived int
	lastAudioAt    time.Time

	streaming *transcript.Streaming

	suggestionLastRun      time.Time
	initialSuggestionsDone bool
	recentFinals           []recentFinal

	lastRecordingStatusAt time.Time

	watchdogCancel context.CancelFunc
	watchdogRunning bool

	stopped bool // set once Ending begins; guards idempotent stop and drops post-stop audio
}

// pushRecentFinal appends a final-transcript entry and evicts anything
// older than window.
func (s *sessionState) pushRecentFinal(text string, at time.Time, window time.Duration) {
	s.recentFinals = append(s.recentFinals, recentFinal{text: text, at: at})
	cutoff := at.Add(-window)
	kept := s.recentFinals[:0]
	for _, f := range s.recentFinals {
		if f.at.After(cutoff) {
			kept = append(kept, f)
		}
	}
	s.recentFinals = kept
}

func (s *sessionState) recentFinalsWordCount(now time.Time, window time.Duration) int {
	cutoff := now.Add(-window)
	count := 0
	for _, f := range s.recentFinals {
		if f.at.After(cutoff) {
			count += len(strings.Fields(f.text))
		}
	}
	return count
}

// Registry is the process-wide mapping from session id to sessionState
// (spec §4.2). getOrCreate is idempotent under reconnect: an existing entry's
// pcmRing and sub-tasks are preserved, and Attach only swaps its socket.
// Cross-session operations proceed concurrently; map access
// itself is protected by mu, independent of each entry's own mu.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*sessionState)}
}

// getOrCreate returns the existing entry for id, or creates and stores a
// new one. The second return value is true iff a new entry was created.
func (r *Registry) getOrCreate(id, tenantID, deckID string) (*sessionState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[id]; ok {
		return existing, false
	}
	st := &sessionState{id: id, tenantID: tenantID, deckID: deckID}
	r.sessions[id] = st
	return st, true
}

func (r *Registry) get(id string) (*sessionState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.sessions[id]
	return st, ok
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

