// Package suggestion produces de-duplicated "next question" candidates
// from a generator, gated by the Orchestrator's trigger matrix (initial,
// rolling, replacement).
package suggestion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pitchloop-ai/session-orchestrator/pkg/llm"
)

// Request carries everything one invocation needs to ask the generator for
// fresh candidates.
type Request struct {
	KBContext         string
	RecentFinals      string
	ExistingQuestions []string
}

// Result is the parsed generator output; Generate returns it with Questions
// already deduplicated.
type Result struct {
	Questions []string `json:"questions"`
	Context   string   `json:"context"`
	Topics    []string `json:"topics"`
}

// Engine asks an llm.Generator for 3-5 candidate questions and returns the
// de-duplicated survivors.
type Engine struct {
	generator llm.Generator
}

func NewEngine(generator llm.Generator) *Engine {
	return &Engine{generator: generator}
}

const systemPrompt = `You generate insightful follow-up questions an investor could ask during a live pitch meeting. Respond with strict JSON of the shape {"questions": string[], "context": string, "topics": string[]}. Propose 3 to 5 questions. Do not repeat questions already asked.`

// Generate asks the generator for new candidates and returns the
// de-duplicated list against req.ExistingQuestions. An empty return means
// the invocation yields no update.
func (e *Engine) Generate(ctx context.Context, req Request) (Result, error) {
	prompt := buildPrompt(req)
	raw, err := e.generator.Complete(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return Result{}, fmt.Errorf("suggestion: generate: %w", err)
	}

	var result Result
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil {
		return Result{}, fmt.Errorf("suggestion: parse generator output: %w", err)
	}

	result.Questions = Dedup(result.Questions, req.ExistingQuestions)
	return result, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Knowledge base context:\n")
	b.WriteString(req.KBContext)
	b.WriteString("\n\nRecent conversation (final transcripts, last 3 minutes):\n")
	if req.RecentFinals == "" {
		b.WriteString("(none yet)")
	} else {
		b.WriteString(req.RecentFinals)
	}
	b.WriteString("\n\nQuestions already visible (do not repeat):\n")
	if len(req.ExistingQuestions) == 0 {
		b.WriteString("(none)")
	} else {
		for _, q := range req.ExistingQuestions {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	return b.String()
}

// extractJSON trims leading/trailing prose some generators wrap JSON in,
// taking the outermost {...} span.
func extractJSON(raw string) string {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}
