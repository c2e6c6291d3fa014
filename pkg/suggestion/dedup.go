package suggestion

import (
	"regexp"
	"strings"
)

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "he": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"that": true, "the": true, "to": true, "was": true, "were": true,
	"will": true, "with": true, "what": true, "how": true, "do": true, "you": true,
}

var punctuation = regexp.MustCompile(`[^\w\s]`)
var whitespace = regexp.MustCompile(`\s+`)

// normalize lowercases, strips punctuation, and collapses whitespace so
// near-identical candidates compare equal.
func normalize(text string) string {
	lower := strings.ToLower(text)
	stripped := punctuation.ReplaceAllString(lower, " ")
	collapsed := whitespace.ReplaceAllString(stripped, " ")
	return strings.TrimSpace(collapsed)
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(normalize(text)) {
		if stopWords[w] {
			continue
		}
		set[w] = true
	}
	return set
}

// jaccard computes word-set similarity between a and b, ignoring stop words.
func jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// duplicateThreshold is the similarity at or above which a candidate is
// considered a duplicate of an existing question.
const duplicateThreshold = 0.7

func isDuplicate(candidate string, existing []string) bool {
	for _, e := range existing {
		if jaccard(candidate, e) >= duplicateThreshold {
			return true
		}
	}
	return false
}

// Dedup filters candidates against existing visible questions (Jaccard
// similarity >= 0.7) and removes exact-normalized duplicates within the
// batch itself.
func Dedup(candidates []string, existing []string) []string {
	var kept []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		key := normalize(c)
		if key == "" || seen[key] {
			continue
		}
		if isDuplicate(c, existing) {
			continue
		}
		seen[key] = true
		kept = append(kept, c)
	}
	return kept
}
