// Package llm defines the generative-text provider contract used by the
// suggestion engine, the summarizer glue, and (indirectly) the deck/thesis
// analysis collaborators. It has no opinion on vendor: adapters live under
// pkg/providers/llm.
package llm

import "context"

// Message is a single turn in a generation request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator is the contract every text-generation vendor adapter satisfies.
// Complete is used both for free-form completions and for the JSON-shaped
// completions the suggestion engine and summarizer request (callers pass a
// system/user message pair that demands a specific JSON shape and parse the
// returned string themselves — this mirrors how the teacher's LLMProvider
// is a single Complete method regardless of what the caller asked for).
type Generator interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Name() string
}
