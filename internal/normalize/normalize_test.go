package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/futbol-tracker/internal/record"
)

func TestDate(t *testing.T) {
	cases := map[string]string{
		"1/2/26":     "01/02/2026",
		"15-03-2025": "15/03/2025",
		"5-11-24":    "05/11/2024",
		"01/02/2026": "01/02/2026",
		" 3/4/25 ":   "03/04/2025",
		"garbage":    "garbage",
		"12/2025":    "12/2025",
		"---":        "---",
		"":           "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Date(in), "Date(%q)", in)
	}
}

func TestDocID(t *testing.T) {
	t.Run("lowercase and underscores", func(t *testing.T) {
		assert.Equal(t, "equipo_eibar_b", DocID(record.CategoryTeam, "Eibar B"))
		assert.Equal(t, "jugador_jon_garcia", DocID(record.CategoryPlayer, "Jon  Garcia"))
		assert.Equal(t, "clasificacion_fc_cartagena", DocID(record.CategoryStandings, "F.C. Cartagena"))
	})

	t.Run("no whitespace or punctuation", func(t *testing.T) {
		for _, name := range []string{"S.D. Eibar B", "C.D. Derio", "Peio Manrique", "Indartsu (Basauri)"} {
			id := DocID(record.CategoryTeam, name)
			assert.Equal(t, strings.ToLower(id), id)
			assert.NotContains(t, id, " ")
			assert.NotContains(t, id, ".")
			assert.NotContains(t, id, "(")
		}
	})

	t.Run("stable across calls", func(t *testing.T) {
		assert.Equal(t, DocID(record.CategoryFixtures, "derio"), DocID(record.CategoryFixtures, "derio"))
	})

	t.Run("category separates namespaces", func(t *testing.T) {
		assert.NotEqual(t, DocID(record.CategoryTeam, "Eibar B"), DocID(record.CategoryStandings, "Eibar B"))
	})
}

func TestMatchesMissed(t *testing.T) {
	for team := 0; team <= 12; team++ {
		for player := 0; player <= 12; player++ {
			got := MatchesMissed(team, player)
			require.GreaterOrEqual(t, got, 0)
			if team >= player {
				require.Equal(t, team-player, got)
			} else {
				require.Zero(t, got)
			}
		}
	}
}

func TestCount(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		for in, want := range map[string]int{"7": 7, " 12\n": 12, "": 0, "-": 0, "---": 0, "0": 0} {
			got, err := Count(in)
			require.NoError(t, err, in)
			assert.Equal(t, want, got, in)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Count("7a")
		assert.Error(t, err)
	})
}

func TestLeadingInt(t *testing.T) {
	n, ok := LeadingInt(" 12 ")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	n, ok = LeadingInt("3ª")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = LeadingInt("J3")
	assert.False(t, ok)
}

func TestApply(t *testing.T) {
	t.Run("team summary dates", func(t *testing.T) {
		env := Apply(record.Envelope{Record: &record.TeamSummary{
			TeamName: "Indartsu",
			Last:     &record.LastMatch{Date: "1/2/26", Score: "2 - 1"},
			Next:     &record.NextMatch{Date: "8-2-26", Time: "16:30"},
		}}, "indartsu", nil)

		ts := env.Record.(*record.TeamSummary)
		assert.Equal(t, "01/02/2026", ts.Last.Date)
		assert.Equal(t, "08/02/2026", ts.Next.Date)
	})

	t.Run("fixture list dates", func(t *testing.T) {
		env := Apply(record.Envelope{Record: &record.FixtureList{
			TeamKey: "derio",
			Matches: []record.Fixture{{Date: "3/5/25"}, {Date: "---"}},
		}}, "derio", nil)

		fl := env.Record.(*record.FixtureList)
		assert.Equal(t, "03/05/2025", fl.Matches[0].Date)
		assert.Equal(t, "---", fl.Matches[1].Date)
	})

	t.Run("player matches missed", func(t *testing.T) {
		env := Apply(record.Envelope{Record: &record.PlayerStats{PlayerName: "Gaizka Miralles", MatchesPlayed: 7}},
			"indartsu", map[string]int{"indartsu": 10})
		nj := env.Record.(*record.PlayerStats).MatchesMissed
		require.NotNil(t, nj)
		assert.Equal(t, 3, *nj)
	})

	t.Run("player without tally", func(t *testing.T) {
		env := Apply(record.Envelope{Record: &record.PlayerStats{PlayerName: "Eneko Ebro", MatchesPlayed: 4}},
			"cartagena", map[string]int{})
		assert.Nil(t, env.Record.(*record.PlayerStats).MatchesMissed)
	})
}
