package pipeline

import "maps"

// Tally accumulates team matches-played counts during the team phase.
// Several sources may report the same team; the highest count wins, since
// a lagging page can only under-report.
type Tally struct {
	played map[string]int
}

func NewTally() *Tally {
	return &Tally{played: make(map[string]int)}
}

// Observe folds one source's counts in.
func (t *Tally) Observe(played map[string]int) {
	for team, n := range played {
		if cur, ok := t.played[team]; !ok || n > cur {
			t.played[team] = n
		}
	}
}

// Freeze returns a copy that later observations do not affect.
func (t *Tally) Freeze() map[string]int {
	return maps.Clone(t.played)
}
