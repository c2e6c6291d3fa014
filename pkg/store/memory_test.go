package store

import (
	"context"
	"testing"
	"time"
)

func TestMemorySessionsCreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	_, mem := NewMemoryStore()

	s := &Session{ID: "s1", DeckID: "d1", Status: SessionActive, StartedAt: time.Now()}
	if err := mem.SessionsRepo.Create(ctx, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := mem.SessionsRepo.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DeckID != "d1" {
		t.Errorf("expected deck d1, got %s", got.DeckID)
	}

	got.Status = SessionEnded
	if err := mem.SessionsRepo.Update(ctx, got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, _ := mem.SessionsRepo.Get(ctx, "s1")
	if updated.Status != SessionEnded {
		t.Errorf("expected status ended after update, got %s", updated.Status)
	}
}

func TestMemorySessionsGetMissing(t *testing.T) {
	_, mem := NewMemoryStore()
	if _, err := mem.SessionsRepo.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryTranscriptsAppendOrdering(t *testing.T) {
	ctx := context.Background()
	_, mem := NewMemoryStore()

	base := time.Now()
	for i := 0; i < 3; i++ {
		mem.TranscriptsRepo.Append(ctx, &Transcript{
			ID: "t" + string(rune('0'+i)), SessionID: "s1",
			Timestamp: base.Add(time.Duration(i) * time.Second), Text: "x", IsFinal: true,
		})
	}

	list, err := mem.TranscriptsRepo.ListBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 transcripts, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].Timestamp.Before(list[i-1].Timestamp) {
			t.Errorf("expected non-decreasing timestamps, got %v then %v", list[i-1].Timestamp, list[i].Timestamp)
		}
	}
}

func TestSessionVisibleQuestions(t *testing.T) {
	s := Session{SuggestedQuestions: []SuggestedQuestion{
		{ID: "q1", Text: "a", Deleted: false},
		{ID: "q2", Text: "b", Deleted: true},
		{ID: "q3", Text: "c", Deleted: false},
	}}
	visible := s.VisibleQuestions()
	if len(visible) != 2 {
		t.Fatalf("expected 2 visible questions, got %d", len(visible))
	}
	if visible[0].ID != "q1" || visible[1].ID != "q3" {
		t.Errorf("expected q1,q3 to remain visible, got %v", visible)
	}
}

func TestDecksThesesRoundtrip(t *testing.T) {
	ctx := context.Background()
	_, mem := NewMemoryStore()

	mem.SeedDeck(Deck{ID: "d1", Title: "Acme", Status: "active"})
	mem.SeedThesis("org1", Thesis{ID: "th1", OrgID: "org1", Profile: RawTextVariant("seed stage SaaS")})

	deck, err := mem.DecksRepo.Get(ctx, "d1")
	if err != nil || deck.Title != "Acme" {
		t.Fatalf("expected deck Acme, got %+v err %v", deck, err)
	}

	thesis, err := mem.ThesesRepo.GetByOrg(ctx, "org1")
	if err != nil || thesis.Profile.RawText != "seed stage SaaS" {
		t.Fatalf("expected seeded thesis, got %+v err %v", thesis, err)
	}
}
