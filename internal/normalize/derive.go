package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/albapepper/futbol-tracker/internal/record"
)

// MatchesMissed is the number of team matches a player did not appear in.
// It is never negative: a player tally ahead of the team tally (stale
// standings, cup matches) clamps to zero.
func MatchesMissed(teamPlayed, playerPlayed int) int {
	return max(0, teamPlayed-playerPlayed)
}

// Count parses a numeric table cell. Empty and placeholder cells ("-",
// "---") count as zero; anything else that is not an integer is an error.
func Count(cell string) (int, error) {
	s := Text(cell)
	switch s {
	case "", "-", "--", "---":
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", cell, err)
	}
	return n, nil
}

// LeadingInt parses the integer prefix of s ("12", "12ª", "J12" fails).
// ok is false when s does not start with a digit.
func LeadingInt(s string) (n int, ok bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Apply turns a raw envelope into a normalized one: every date field is
// canonicalized and player records get MatchesMissed from the team tally.
// played is read-only; a team without a tally entry leaves MatchesMissed
// unset.
func Apply(env record.Envelope, team string, played map[string]int) record.Envelope {
	switch r := env.Record.(type) {
	case *record.TeamSummary:
		if r.Last != nil {
			r.Last.Date = Date(r.Last.Date)
		}
		if r.Next != nil {
			r.Next.Date = Date(r.Next.Date)
		}
	case *record.FixtureList:
		for i := range r.Matches {
			r.Matches[i].Date = Date(r.Matches[i].Date)
		}
	case *record.PlayerStats:
		if n, ok := played[team]; ok {
			missed := MatchesMissed(n, r.MatchesPlayed)
			r.MatchesMissed = &missed
		}
	}
	return env
}
