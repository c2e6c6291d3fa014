package suggestion

import (
	"context"
	"testing"
	"time"

	"github.com/pitchloop-ai/session-orchestrator/pkg/llm"
)

type mockGenerator struct {
	response string
	err      error
	lastReq  []llm.Message
}

func (m *mockGenerator) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	m.lastReq = messages
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockGenerator) Name() string { return "mock-generator" }

func TestEngineGenerateParsesAndDedups(t *testing.T) {
	gen := &mockGenerator{response: `{"questions": ["What is your TAM?", "How do you retain customers?"], "context": "pitch", "topics": ["market"]}`}
	e := NewEngine(gen)

	result, err := e.Generate(context.Background(), Request{
		KBContext:         "deck info",
		ExistingQuestions: []string{"What is your TAM?"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Questions) != 1 || result.Questions[0] != "How do you retain customers?" {
		t.Errorf("expected only the non-duplicate question to survive, got %v", result.Questions)
	}
}

func TestEngineGenerateHandlesWrappedJSON(t *testing.T) {
	gen := &mockGenerator{response: "Here you go:\n```json\n{\"questions\": [\"What's your CAC?\"], \"context\": \"\", \"topics\": []}\n```"}
	e := NewEngine(gen)

	result, err := e.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Questions) != 1 {
		t.Fatalf("expected one question parsed from wrapped JSON, got %v", result.Questions)
	}
}

func TestEngineGenerateParseFailure(t *testing.T) {
	gen := &mockGenerator{response: "not json at all"}
	e := NewEngine(gen)

	if _, err := e.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRollingGate(t *testing.T) {
	now := time.Now()
	if RollingGate(false, now, now.Add(-2*time.Minute), 100) {
		t.Error("expected gate closed before initial suggestions run")
	}
	if RollingGate(true, now, now.Add(-30*time.Second), 100) {
		t.Error("expected gate closed under the 60s interval")
	}
	if RollingGate(true, now, now.Add(-2*time.Minute), 10) {
		t.Error("expected gate closed under the 50-word threshold")
	}
	if !RollingGate(true, now, now.Add(-2*time.Minute), 50) {
		t.Error("expected gate open when all conditions satisfied")
	}
}

func TestWordCount(t *testing.T) {
	if WordCount([]string{"hello there", "how are you"}) != 5 {
		t.Errorf("expected 5 words, got %d", WordCount([]string{"hello there", "how are you"}))
	}
}
