// Package contextassembler renders the knowledge-base context bundle fed to
// the suggestion and summary generators. The formatter is pure: identical
// inputs always produce identical output.
package contextassembler

import (
	"fmt"
	"strings"

	"github.com/pitchloop-ai/session-orchestrator/pkg/store"
)

// Input bundles every record the formatted context draws from.
type Input struct {
	Deck                store.Deck
	Thesis              *store.Thesis
	Messages            []store.Message
	SupportingDocuments []store.SupportingDocument
	DataRoomDocuments   []store.DataRoomDocument
}

// Assemble formats Input into the deterministic context string described
// for the Suggestion Engine and Summarizer Glue.
func Assemble(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Deck: %s\nStatus: %s\nAnalysis Version: %s\n", in.Deck.Title, in.Deck.Status, in.Deck.AnalysisVersion)
	b.WriteString("Deck Analysis:\n")
	b.WriteString(renderVariant(in.Deck.Analysis))
	b.WriteString("\n\n")

	b.WriteString("Firm Thesis:\n")
	if in.Thesis == nil {
		b.WriteString("Not available")
	} else {
		b.WriteString(renderVariant(in.Thesis.Profile))
	}
	b.WriteString("\n\n")

	b.WriteString("Prior Conversation:\n")
	if len(in.Messages) == 0 {
		b.WriteString("None")
	} else {
		for _, m := range in.Messages {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", m.UserQuery, m.AIResponse)
		}
	}
	b.WriteString("\n\n")

	b.WriteString("Supporting Documents:\n")
	if len(in.SupportingDocuments) == 0 {
		b.WriteString("None")
	} else {
		for _, d := range in.SupportingDocuments {
			fmt.Fprintf(&b, "- %s: %s\n", d.Title, d.Description)
		}
	}
	b.WriteString("\n\n")

	b.WriteString("Data Room Documents:\n")
	if len(in.DataRoomDocuments) == 0 {
		b.WriteString("None")
	} else {
		for _, d := range in.DataRoomDocuments {
			fmt.Fprintf(&b, "- %s [%s]: %s\n", d.Title, d.Category, renderVariant(d.AISummary))
		}
	}

	return b.String()
}

// renderVariant prefers the structured JSON dump and falls back to raw
// text, per the tagged-variant "mixed" field contract.
func renderVariant(v store.Variant) string {
	switch v.Kind {
	case "structured":
		if len(v.Structured) == 0 {
			return "Not available"
		}
		return string(v.Structured)
	case "raw_text":
		if v.RawText == "" {
			return "Not available"
		}
		return v.RawText
	default:
		return "Not available"
	}
}
