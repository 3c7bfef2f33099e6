// Package publish decides which records are safe to persist and writes
// them to the document store in one atomic batch.
package publish

import (
	"fmt"
	"regexp"

	"github.com/albapepper/futbol-tracker/internal/record"
)

// scorePattern is the accepted last-match score: "<int> - <int>" with an
// optional one-letter outcome (G/E/P as the sources print it, W/D/L).
var scorePattern = regexp.MustCompile(`^\d+\s*-\s*\d+(\s*[GEPWDL])?$`)

// ValidScore reports whether s is a publishable score.
func ValidScore(s string) bool {
	return scorePattern.MatchString(s)
}

// Check is the publish decision for one envelope. Only team summaries can
// be rejected.
func Check(env record.Envelope) record.Decision {
	d := record.Decision{Envelope: env, Accept: true}
	summary, ok := env.Record.(*record.TeamSummary)
	if !ok {
		return d
	}
	switch {
	case summary.Last == nil:
		d.Accept, d.Reason = false, "no last match"
	case !ValidScore(summary.Last.Score):
		d.Accept, d.Reason = false, fmt.Sprintf("score %q does not match", summary.Last.Score)
	}
	return d
}

// Gate checks every envelope, preserving order.
func Gate(envs []record.Envelope) []record.Decision {
	out := make([]record.Decision, len(envs))
	for i, env := range envs {
		out[i] = Check(env)
	}
	return out
}
