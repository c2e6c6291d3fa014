package blobstore

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestMemoryPutGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Put(ctx, "sessions/s1.pcm", []byte("raw audio bytes")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := m.Get(ctx, "sessions/s1.pcm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, []byte("raw audio bytes")) {
		t.Errorf("expected round-tripped bytes, got %q", got)
	}
}

func TestMemoryGetMissingKey(t *testing.T) {
	m := NewMemory()
	if _, err := m.Get(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestMemorySignedReadURL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put(ctx, "k1", []byte("data"))

	url, err := m.SignedReadURL(ctx, "k1", 5*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(url, "k1") {
		t.Errorf("expected url to reference the key, got %q", url)
	}
}
