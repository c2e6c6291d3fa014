package suggestion

import (
	"strings"
	"time"
)

const (
	rollingMinInterval  = 60 * time.Second
	rollingWindow       = 3 * time.Minute
	rollingMinWordCount = 50
)

// RollingGate decides whether the rolling-suggestion trigger should fire on
// this inbound audio batch, per the trigger matrix: initial suggestions
// already emitted, at least 60s since the last run, and at least 50 words
// of final transcript in the trailing 3-minute window.
func RollingGate(initialDone bool, now, lastRun time.Time, recentFinalsWordCount int) bool {
	if !initialDone {
		return false
	}
	if now.Sub(lastRun) < rollingMinInterval {
		return false
	}
	return recentFinalsWordCount >= rollingMinWordCount
}

// WordCount counts words across a set of final transcript texts the way
// the rolling gate expects (whitespace-delimited, no stop-word filtering).
func WordCount(texts []string) int {
	count := 0
	for _, t := range texts {
		count += len(strings.Fields(t))
	}
	return count
}
