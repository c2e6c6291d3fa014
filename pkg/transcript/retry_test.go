package transcript

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryableStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   bool
	}{
		{500, "internal error", true},
		{503, "unavailable", true},
		{429, "rate limited", true},
		{400, "bad request", false},
		{400, "something went wrong, try again", true},
		{404, "not found", false},
	}
	for _, c := range cases {
		err := &StatusError{Status: c.status, Body: c.body}
		if got := retryable(err); got != c.want {
			t.Errorf("status %d body %q: retryable=%v, want %v", c.status, c.body, got, c.want)
		}
	}
}

func TestRetryableNonStatusError(t *testing.T) {
	if retryable(errors.New("connection timeout")) != true {
		t.Error("expected timeout substring to be retryable")
	}
	if retryable(errors.New("invalid api key")) != false {
		t.Error("expected unrelated error to be non-retryable")
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	start := time.Now()
	result, err := withRetry(context.Background(), func() (VerboseResult, error) {
		attempts++
		if attempts < 3 {
			return VerboseResult{}, &StatusError{Status: 503, Body: "try again"}
		}
		return VerboseResult{Text: "ok"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "ok" {
		t.Errorf("expected ok, got %q", result.Text)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if time.Since(start) < 3*time.Second {
		t.Error("expected backoff delay between retries")
	}
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	_, err := withRetry(context.Background(), func() (VerboseResult, error) {
		attempts++
		return VerboseResult{}, errors.New("invalid request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt for non-retryable error, got %d", attempts)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	_, err := withRetry(context.Background(), func() (VerboseResult, error) {
		attempts++
		return VerboseResult{}, &StatusError{Status: 500, Body: "boom"}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != maxChunkRetries+1 {
		t.Errorf("expected %d attempts, got %d", maxChunkRetries+1, attempts)
	}
}
