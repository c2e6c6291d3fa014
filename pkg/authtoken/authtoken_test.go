package authtoken

import (
	"testing"
	"time"
)

func TestIssueVerifyRoundtrip(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Hour)

	token, err := issuer.Issue("session-123", "tenant-abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.SessionID != "session-123" {
		t.Errorf("expected sessionId session-123, got %q", claims.SessionID)
	}
	if claims.TenantID != "tenant-abc" {
		t.Errorf("expected tenantId tenant-abc, got %q", claims.TenantID)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), -time.Minute)

	token, err := issuer.Issue("session-123", "tenant-abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := issuer.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewIssuer([]byte("secret-one"), time.Hour)
	token, err := issuer.Issue("session-123", "tenant-abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := NewIssuer([]byte("secret-two"), time.Hour)
	if _, err := other.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsGarbageToken(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Hour)
	if _, err := issuer.Verify("not-a-jwt"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
