package summarizer

import (
	"context"
	"strings"
	"testing"

	"github.com/pitchloop-ai/session-orchestrator/pkg/llm"
)

type mockGenerator struct {
	response string
	err      error
}

func (m *mockGenerator) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockGenerator) Name() string { return "mock-generator" }

func TestSummarizeSuccess(t *testing.T) {
	gen := &mockGenerator{response: `{
		"executiveSummary": "Strong seed-stage SaaS pitch.",
		"keyTopics": ["market", "team"],
		"importantPoints": ["$2B TAM"],
		"questionsAsked": ["What is your CAC?"],
		"concernsOrRedFlags": ["high churn"],
		"nextSteps": ["follow up next week"],
		"overallAssessment": "Promising"
	}`}
	g := NewGlue(gen)

	summary, content := g.Summarize(context.Background(), Input{Transcript: "hello world", Duration: 600, Participants: []string{"Alice", "Bob"}})
	if summary.ExecutiveSummary != "Strong seed-stage SaaS pitch." {
		t.Errorf("unexpected executive summary: %q", summary.ExecutiveSummary)
	}
	if !strings.Contains(content, "EXECUTIVE SUMMARY") || !strings.Contains(content, "Promising") {
		t.Errorf("expected rendered content to include fixed layout and assessment, got %q", content)
	}
}

func TestSummarizeFallsBackOnGeneratorError(t *testing.T) {
	gen := &mockGenerator{err: context.DeadlineExceeded}
	g := NewGlue(gen)

	summary, content := g.Summarize(context.Background(), Input{Transcript: "one two three", Duration: 60, Participants: []string{"Alice"}})
	if !strings.Contains(summary.ExecutiveSummary, "AI summary generation failed") {
		t.Errorf("expected fallback executive summary, got %q", summary.ExecutiveSummary)
	}
	if !strings.Contains(content, "3 transcribed words") {
		t.Errorf("expected fallback to mention word count, got %q", content)
	}
}

func TestSummarizeFallsBackOnParseFailure(t *testing.T) {
	gen := &mockGenerator{response: "not json"}
	g := NewGlue(gen)

	summary, _ := g.Summarize(context.Background(), Input{Transcript: "x", Duration: 1})
	if !strings.Contains(summary.OverallAssessment, "fallback") {
		t.Errorf("expected fallback overall assessment, got %q", summary.OverallAssessment)
	}
}

func TestRenderHandlesEmptyLists(t *testing.T) {
	out := Render(Summary{ExecutiveSummary: "x"})
	if !strings.Contains(out, "(none)") {
		t.Errorf("expected (none) placeholder for empty lists, got %q", out)
	}
}
