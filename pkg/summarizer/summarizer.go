// Package summarizer renders the finalization-time session summary from an
// llm.Generator, with a deterministic fallback when generation or parsing
// fails.
package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pitchloop-ai/session-orchestrator/pkg/llm"
)

// Input carries everything the Summarizer Glue needs at finalization.
type Input struct {
	Transcript   string // full-audio transcript plain text; carries no per-segment speaker labels
	Duration     float64
	Participants []string
	Languages    []string
	KBContext    string
}

// Summary is the fixed JSON shape the generator is asked to produce.
type Summary struct {
	ExecutiveSummary   string   `json:"executiveSummary"`
	KeyTopics          []string `json:"keyTopics"`
	ImportantPoints    []string `json:"importantPoints"`
	QuestionsAsked     []string `json:"questionsAsked"`
	ConcernsOrRedFlags []string `json:"concernsOrRedFlags"`
	NextSteps          []string `json:"nextSteps"`
	OverallAssessment  string   `json:"overallAssessment"`
}

type Glue struct {
	generator llm.Generator
}

func NewGlue(generator llm.Generator) *Glue {
	return &Glue{generator: generator}
}

const systemPrompt = `You summarize a pitch meeting transcript for an investor. Respond with strict JSON of the shape {"executiveSummary": string, "keyTopics": string[], "importantPoints": string[], "questionsAsked": string[], "concernsOrRedFlags": string[], "nextSteps": string[], "overallAssessment": string}. Use in-transcript self-introductions as hints for participant names where helpful.`

// Summarize asks the generator for a Summary and renders it to plain text.
// On any failure (generator error or unparseable JSON) it returns a
// deterministic fallback summary instead of propagating the error, since
// finalization must still complete with a usable summary.
func (g *Glue) Summarize(ctx context.Context, in Input) (Summary, string) {
	if g.generator == nil {
		return fallback(in)
	}
	prompt := buildPrompt(in)
	raw, err := g.generator.Complete(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return fallback(in)
	}

	var s Summary
	if err := json.Unmarshal([]byte(extractJSON(raw)), &s); err != nil {
		return fallback(in)
	}
	return s, Render(s)
}

func buildPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Duration: %.0fs\nParticipants: %s\nDetected languages: %s\n\n",
		in.Duration, strings.Join(in.Participants, ", "), strings.Join(in.Languages, ", "))
	if in.KBContext != "" {
		b.WriteString("Knowledge base context:\n")
		b.WriteString(in.KBContext)
		b.WriteString("\n\n")
	}
	b.WriteString("Transcript:\n")
	b.WriteString(in.Transcript)
	return b.String()
}

func extractJSON(raw string) string {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}

// Render renders a Summary into the fixed-layout plain-text content field.
// Finalization persists only this rendered text; the structured Summary is
// not stored.
func Render(s Summary) string {
	var b strings.Builder
	b.WriteString("EXECUTIVE SUMMARY\n")
	b.WriteString(s.ExecutiveSummary)
	b.WriteString("\n\nKEY TOPICS\n")
	writeBullets(&b, s.KeyTopics)
	b.WriteString("\nIMPORTANT POINTS\n")
	writeBullets(&b, s.ImportantPoints)
	b.WriteString("\nQUESTIONS ASKED\n")
	writeBullets(&b, s.QuestionsAsked)
	b.WriteString("\nCONCERNS OR RED FLAGS\n")
	writeBullets(&b, s.ConcernsOrRedFlags)
	b.WriteString("\nNEXT STEPS\n")
	writeBullets(&b, s.NextSteps)
	b.WriteString("\nOVERALL ASSESSMENT\n")
	b.WriteString(s.OverallAssessment)
	return b.String()
}

func writeBullets(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

// fallback produces the deterministic summary persisted when AI generation
// fails: duration, participants, word count, and an explicit failure notice.
func fallback(in Input) (Summary, string) {
	wordCount := len(strings.Fields(in.Transcript))
	s := Summary{
		ExecutiveSummary:  fmt.Sprintf("AI summary generation failed. Session lasted %.0fs with %d participant(s) and %d transcribed words.", in.Duration, len(in.Participants), wordCount),
		OverallAssessment: "AI generation failed; this is a deterministic fallback summary.",
	}
	return s, Render(s)
}
