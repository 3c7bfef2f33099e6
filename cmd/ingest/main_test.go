package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/futbol-tracker/internal/browser/browsertest"
	"github.com/albapepper/futbol-tracker/internal/config"
	"github.com/albapepper/futbol-tracker/internal/store"
)

const testCatalog = `
sources:
  - name: Clasificacion Indartsu
    type: federation_standings
    url: https://fed.test/table
    team: indartsu
    tracked: INDARTSU
  - name: Peio Manrique
    type: federation_player
    url: https://fed.test/player
    team: indartsu
`

const playerPage = `<table>
<tr><td>Jokatutakoak</td><td>7</td></tr><tr><td>Hamaikakoan</td><td>5</td></tr>
<tr><td>Ordezkoa</td><td>2</td></tr><tr><td>Guztira</td><td>1</td></tr>
<tr><td>Txartel horia</td><td>0</td></tr><tr><td>Txartel gorria</td><td>0</td></tr>
</table>`

// INDARTSU has played 5 at home and 5 away.
const standingsPage = `<table class="table table-bordered table-striped"><tbody>
<tr><td>1</td><td></td><td>INDARTSU</td><td>20</td>
<td>5</td><td>4</td><td>1</td><td>0</td><td>5</td><td>2</td><td>1</td><td>2</td><td>18</td><td>9</td></tr>
</tbody></table>`

func setup(t *testing.T) (*config.Config, *config.Catalog, *browsertest.Browser) {
	t.Helper()
	catalog, err := config.ParseSources([]byte(testCatalog))
	require.NoError(t, err)
	b := browsertest.New(map[string]browsertest.Site{
		"https://fed.test/player": {HTML: playerPage},
		"https://fed.test/table":  {HTML: standingsPage},
	})
	return &config.Config{StoreBackend: config.StoreBadger}, catalog, b
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIngestPublishesRecords(t *testing.T) {
	cfg, catalog, b := setup(t)
	st := store.NewMemory()

	run, pub, err := ingest(context.Background(), cfg, catalog, b, st, runOptions{}, quiet())
	require.NoError(t, err)
	assert.Equal(t, 2, run.Succeeded)
	assert.True(t, pub.Committed)

	doc, err := st.Get(context.Background(), "jugador_peio_manrique")
	require.NoError(t, err)
	assert.EqualValues(t, 7, doc.Fields["PJ"])
	assert.EqualValues(t, 3, doc.Fields["NJ"])
}

func TestIngestOnlyPlayerKeepsMatchesMissed(t *testing.T) {
	cfg, catalog, b := setup(t)
	st := store.NewMemory()
	ctx := context.Background()

	_, _, err := ingest(ctx, cfg, catalog, b, st, runOptions{}, quiet())
	require.NoError(t, err)

	run, _, err := ingest(ctx, cfg, catalog, b, st, runOptions{only: []string{"Peio Manrique"}}, quiet())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"indartsu": 10}, run.Played, "the team source runs too")

	doc, err := st.Get(ctx, "jugador_peio_manrique")
	require.NoError(t, err)
	assert.EqualValues(t, 3, doc.Fields["NJ"])
}

func TestIngestFailedTeamSourceLeavesMatchesMissed(t *testing.T) {
	cfg, catalog, b := setup(t)
	st := store.NewMemory()
	ctx := context.Background()

	_, _, err := ingest(ctx, cfg, catalog, b, st, runOptions{}, quiet())
	require.NoError(t, err)

	b.Sites["https://fed.test/table"] = browsertest.Site{NavigateErr: assert.AnError}
	run, _, err := ingest(ctx, cfg, catalog, b, st, runOptions{}, quiet())
	require.NoError(t, err)
	assert.Equal(t, 1, run.Failed)

	doc, err := st.Get(ctx, "jugador_peio_manrique")
	require.NoError(t, err)
	assert.EqualValues(t, 3, doc.Fields["NJ"], "no tally means NJ is not written")
}

func TestIngestDryRunWritesNothing(t *testing.T) {
	cfg, catalog, b := setup(t)
	st := store.NewMemory()

	_, pub, err := ingest(context.Background(), cfg, catalog, b, st, runOptions{dryRun: true}, quiet())
	require.NoError(t, err)
	assert.False(t, pub.Committed)
	assert.Equal(t, 2, pub.Written)
	assert.Equal(t, 0, st.Len())
}

func TestIngestCommitFailureIsError(t *testing.T) {
	cfg, catalog, b := setup(t)
	st := store.NewMemory()
	st.FailCommit = assert.AnError

	_, _, err := ingest(context.Background(), cfg, catalog, b, st, runOptions{}, quiet())
	require.Error(t, err)
	assert.Equal(t, 0, st.Len())
}

func TestIngestUnknownSource(t *testing.T) {
	cfg, catalog, b := setup(t)
	_, _, err := ingest(context.Background(), cfg, catalog, b, store.NewMemory(), runOptions{only: []string{"Nadie"}}, quiet())
	assert.ErrorContains(t, err, "Nadie")
	assert.Empty(t, b.Visited())
}

func TestPrintSources(t *testing.T) {
	catalog, err := config.LoadSources("")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printSources(&buf, catalog))
	out := buf.String()
	assert.Contains(t, out, "equipo_eibar_b")
	assert.Contains(t, out, "clasificacion_indartsu")
	assert.Contains(t, out, "jugador_jon_garcia")
}
