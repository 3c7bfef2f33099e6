package publish

import (
	"context"
	"errors"
	"testing"

	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/futbol-tracker/internal/record"
	"github.com/albapepper/futbol-tracker/internal/store"
)

func team(name, score string) record.Envelope {
	return record.Envelope{
		Source: name + " sofascore",
		Type:   record.SourceTeamSnapshot,
		Record: &record.TeamSummary{TeamName: name, Last: &record.LastMatch{Score: score, Date: "01/02/2026"}},
	}
}

func player(name string, pj, nj int) record.Envelope {
	return record.Envelope{
		Source: name,
		Type:   record.SourceFederationPlayer,
		Record: &record.PlayerStats{PlayerName: name, MatchesPlayed: pj, MatchesMissed: &nj},
	}
}

func TestValidScore(t *testing.T) {
	tests := []struct {
		score string
		want  bool
	}{
		{"2 - 1", true},
		{"2 - 1 G", true},
		{"0 - 0 E", true},
		{"3-0", true},
		{"1 - 2P", true},
		{"1 - 2 W", true},
		{"2:1", false},
		{"", false},
		{"2 - ", false},
		{"- 1", false},
		{"2 - 1 X", false},
		{"2 - 1 GG", false},
		{"Aplazado", false},
	}
	for _, tt := range tests {
		t.Run(tt.score, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidScore(tt.score))
		})
	}
}

func TestCheck(t *testing.T) {
	assert.True(t, Check(team("Eibar B", "2 - 1")).Accept)

	d := Check(team("Eibar B", "18:30"))
	assert.False(t, d.Accept)
	assert.Contains(t, d.Reason, "18:30")

	noLast := record.Envelope{Record: &record.TeamSummary{TeamName: "CD Derio"}}
	assert.False(t, Check(noLast).Accept)

	// Other categories are never rejected.
	assert.True(t, Check(player("Jon Hermida", 0, 0)).Accept)
	assert.True(t, Check(record.Envelope{Record: &record.FixtureList{TeamKey: "derio"}}).Accept)
}

func TestGate_PreservesOrder(t *testing.T) {
	envs := []record.Envelope{team("A", "1 - 0"), team("B", "x"), player("C", 1, 0)}
	ds := Gate(envs)
	require.Len(t, ds, 3)
	assert.Equal(t, []bool{true, false, true}, []bool{ds[0].Accept, ds[1].Accept, ds[2].Accept})
	assert.Equal(t, "B", ds[1].Envelope.Record.Name())
}

func TestWriter_WritesAcceptedOnly(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	w := NewWriter(mem, false, nil)

	res, err := w.Write(ctx, []record.Envelope{
		team("Eibar B", "2 - 1"),
		team("CD Derio", "2:1"),
		player("Peio Manrique", 7, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Written)
	assert.Equal(t, 1, res.Rejected)
	assert.True(t, res.Committed)
	assert.Equal(t, []string{"equipo_eibar_b", "jugador_peio_manrique"}, res.Keys)
	assert.Equal(t, 1, mem.Commits(), "one batch per run")

	_, err = mem.Get(ctx, "equipo_cd_derio")
	assert.ErrorIs(t, err, store.ErrNotFound)

	doc, err := mem.Get(ctx, "jugador_peio_manrique")
	require.NoError(t, err)
	assert.EqualValues(t, 3, doc.Fields["NJ"])
	assert.Equal(t, "Peio Manrique", doc.Fields["nombre"])
	for _, internal := range []string{"Source", "Type", "tipo", "origen"} {
		assert.NotContains(t, doc.Fields, internal)
	}
}

func TestWriter_MergeKeepsForeignFields(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	b := mem.Batch()
	b.Set("equipo_eibar_b", map[string]any{"escudo": "eibar.png", "nombre": "Eibar B"})
	require.NoError(t, b.Commit(ctx))

	_, err := NewWriter(mem, false, nil).Write(ctx, []record.Envelope{team("Eibar B", "0 - 0")})
	require.NoError(t, err)

	doc, err := mem.Get(ctx, "equipo_eibar_b")
	require.NoError(t, err)
	assert.Equal(t, "eibar.png", doc.Fields["escudo"])
	assert.Equal(t, "0 - 0", doc.Fields["ultimo"].(map[string]any)["resultado"])
}

func TestWriter_Collision(t *testing.T) {
	mem := store.NewMemory()
	res, err := NewWriter(mem, false, nil).Write(context.Background(), []record.Envelope{
		player("Jon García", 1, 0),
		player("Jon Garca", 2, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Collisions)
	assert.Equal(t, 1, res.Written)

	doc, err := mem.Get(context.Background(), res.Keys[0])
	require.NoError(t, err)
	assert.Equal(t, "Jon García", doc.Fields["nombre"])
}

func TestWriter_DryRunDoesNotCommit(t *testing.T) {
	mem := store.NewMemory()
	res, err := NewWriter(mem, true, nil).Write(context.Background(), []record.Envelope{player("A", 1, 0)})
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Equal(t, 1, res.Written)
	assert.Zero(t, mem.Len())
}

func TestWriter_CommitFailureIsFatal(t *testing.T) {
	mem := store.NewMemory()
	mem.FailCommit = errors.New("deadline exceeded talking to store")

	res, err := NewWriter(mem, false, nil).Write(context.Background(), []record.Envelope{player("A", 1, 0)})
	require.Error(t, err)
	assert.True(t, crerr.Is(err, ErrCommit))
	assert.False(t, res.Committed)
	assert.Zero(t, mem.Len())
}

func TestWriter_EmptyBatchSkipsCommit(t *testing.T) {
	mem := store.NewMemory()
	res, err := NewWriter(mem, false, nil).Write(context.Background(), []record.Envelope{team("A", "")})
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Zero(t, mem.Commits())
}
