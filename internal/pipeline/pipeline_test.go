package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/futbol-tracker/internal/browser/browsertest"
	"github.com/albapepper/futbol-tracker/internal/extract"
	"github.com/albapepper/futbol-tracker/internal/pipeline"
	"github.com/albapepper/futbol-tracker/internal/publish"
	"github.com/albapepper/futbol-tracker/internal/record"
	"github.com/albapepper/futbol-tracker/internal/store"
)

func snapshotPage(home, away string, hs, as int) string {
	return fmt.Sprintf(`<div class="pb_sm pt_xs"><a data-id="1">
		<bdi>1/2/26</bdi>
		<bdi class="trunc_true">Liga</bdi><bdi class="trunc_true">%s</bdi><bdi class="trunc_true">%s</bdi>
		<span class="score">FT</span><span class="score">%d</span><span class="score">%d</span>
	</a></div>`, home, away, hs, as)
}

const federationStandingsPage = `<table class="table table-bordered table-striped"><tbody>
<tr><td>1</td><td></td><td>INDARTSU</td><td>20</td>
<td>5</td><td>4</td><td>1</td><td>0</td><td>5</td><td>2</td><td>1</td><td>2</td><td>18</td><td>9</td></tr>
<tr><td>2</td><td></td><td>ZALLA</td><td>18</td>
<td>5</td><td>3</td><td>1</td><td>1</td><td>5</td><td>2</td><td>2</td><td>1</td><td>15</td><td>10</td></tr>
</tbody></table>`

const federationPlayerPage = `<table>
<tr><td>Jokatutakoak</td><td>7</td></tr><tr><td>Hamaikakoan</td><td>5</td></tr>
<tr><td>Ordezkoa</td><td>2</td></tr><tr><td>Guztira</td><td>1</td></tr>
<tr><td>Txartel horia</td><td>0</td></tr><tr><td>Txartel gorria</td><td>0</td></tr>
</table>`

// scenario is three team snapshots, one federation standings table (team
// at 10 played) and one federation player (7 played).
func scenario() ([]record.Source, map[string]browsertest.Site) {
	sources := []record.Source{
		{Name: "Peio Manrique", Type: record.SourceFederationPlayer, URL: "https://fed.test/player", Team: "indartsu"},
		{Name: "Eibar B", Type: record.SourceTeamSnapshot, URL: "https://live.test/eibar", Team: "eibar_b"},
		{Name: "CD Derio", Type: record.SourceTeamSnapshot, URL: "https://live.test/derio", Team: "derio"},
		{Name: "FC Cartagena", Type: record.SourceTeamSnapshot, URL: "https://live.test/cartagena", Team: "cartagena"},
		{Name: "Indartsu", Type: record.SourceFederationStandings, URL: "https://fed.test/table", Team: "indartsu", Tracked: "INDARTSU"},
	}
	sites := map[string]browsertest.Site{
		"https://fed.test/player":     {HTML: federationPlayerPage},
		"https://live.test/eibar":     {HTML: snapshotPage("SD Eibar B", "Basconia", 2, 1), Eval: true},
		"https://live.test/derio":     {HTML: snapshotPage("Derio", "Arratia", 0, 0), Eval: true},
		"https://live.test/cartagena": {HTML: snapshotPage("Ceuta", "FC Cartagena", 1, 3), Eval: true},
		"https://fed.test/table":      {HTML: federationStandingsPage},
	}
	return sources, sites
}

func newOrchestrator(b *browsertest.Browser) *pipeline.Orchestrator {
	return pipeline.New(b, extract.NewRegistry(nil), pipeline.Options{}, nil)
}

func TestRun_EndToEndMatchesMissed(t *testing.T) {
	ctx := context.Background()
	sources, sites := scenario()
	b := browsertest.New(sites)

	run := newOrchestrator(b).Run(ctx, sources)
	assert.Equal(t, 5, run.Succeeded)
	assert.Zero(t, run.Failed)
	assert.Equal(t, map[string]int{"indartsu": 10}, run.Played)

	mem := store.NewMemory()
	res, err := publish.NewWriter(mem, false, nil).Write(ctx, run.Envelopes)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Written)

	doc, err := mem.Get(ctx, "jugador_peio_manrique")
	require.NoError(t, err)
	assert.EqualValues(t, 7, doc.Fields["PJ"])
	assert.EqualValues(t, 3, doc.Fields["NJ"])

	eibar, err := mem.Get(ctx, "equipo_eibar_b")
	require.NoError(t, err)
	last := eibar.Fields["ultimo"].(map[string]any)
	assert.Equal(t, "2 - 1", last["resultado"])
	assert.Equal(t, "01/02/2026", last["fecha"], "dates are canonical")

	_, err = mem.Get(ctx, "clasificacion_indartsu")
	assert.NoError(t, err)
}

func TestRun_TeamPhaseBeforePlayerPhase(t *testing.T) {
	sources, sites := scenario()
	b := browsertest.New(sites)
	newOrchestrator(b).Run(context.Background(), sources)

	assert.Equal(t, []string{
		"https://live.test/eibar",
		"https://live.test/derio",
		"https://live.test/cartagena",
		"https://fed.test/table",
		"https://fed.test/player",
	}, b.Visited())
}

func TestRun_FailuresAreIsolated(t *testing.T) {
	ctx := context.Background()
	sources, sites := scenario()
	sources = append(sources,
		record.Source{Name: "Panics", Type: record.SourceLeagueStandings, URL: "https://x.test/panic", Team: "x"},
		record.Source{Name: "Unreachable", Type: record.SourceLeagueStandings, URL: "https://x.test/down", Team: "y"},
		record.Source{Name: "Unknown", Type: "rss", URL: "https://x.test/rss", Team: "z"},
		record.Source{Name: "No table", Type: record.SourcePlayerSeason, URL: "https://x.test/empty", Team: "eibar_b"},
	)
	sites["https://x.test/panic"] = browsertest.Site{Panic: "index out of range"}
	sites["https://x.test/down"] = browsertest.Site{NavigateErr: errors.New("net::ERR_CONNECTION_REFUSED")}
	sites["https://x.test/empty"] = browsertest.Site{HTML: "<p>maintenance</p>"}

	b := browsertest.New(sites)
	run := newOrchestrator(b).Run(ctx, sources)

	assert.Equal(t, 5, run.Succeeded)
	assert.Equal(t, 4, run.Failed)
	assert.Len(t, run.Errors, 4)
	assert.Zero(t, b.Open(), "every page is closed, including the panicking one")

	kinds := map[string]string{}
	for _, tr := range run.Tasks {
		kinds[tr.Source] = tr.Kind
	}
	assert.Equal(t, "Unclassified", kinds["Panics"])
	assert.Equal(t, "Unclassified", kinds["Unreachable"])
	assert.Equal(t, "ExtractionEmpty", kinds["No table"])

	mem := store.NewMemory()
	_, err := publish.NewWriter(mem, false, nil).Write(ctx, run.Envelopes)
	require.NoError(t, err)
	docs, err := mem.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, docs, 5)
}

func TestRun_NavigationTimeoutClassified(t *testing.T) {
	src := record.Source{Name: "Gone", Type: record.SourceLeagueStandings, URL: "https://nowhere.test", Team: "x"}
	run := newOrchestrator(browsertest.New(nil)).Run(context.Background(), []record.Source{src})
	require.Len(t, run.Tasks, 1)
	assert.Equal(t, "NavigationTimeout", run.Tasks[0].Kind)
}

func TestRun_IdempotentAcrossRuns(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	snapshot := func() []store.Document {
		sources, sites := scenario()
		run := newOrchestrator(browsertest.New(sites)).Run(ctx, sources)
		_, err := publish.NewWriter(mem, false, nil).Write(ctx, run.Envelopes)
		require.NoError(t, err)
		docs, err := mem.List(ctx, "")
		require.NoError(t, err)
		return docs
	}

	first := snapshot()
	second := snapshot()
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Key, second[i].Key)
		assert.Equal(t, first[i].Fields, second[i].Fields)
	}
}

func TestRun_CancelledContextSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sources, sites := scenario()
	b := browsertest.New(sites)

	run := newOrchestrator(b).Run(ctx, sources)
	assert.Equal(t, len(sources), run.Skipped)
	assert.Zero(t, b.Opened())
}

func TestRun_NewPageFailure(t *testing.T) {
	sources, sites := scenario()
	b := browsertest.New(sites)
	b.NewPageErr = errors.New("browser crashed")

	run := newOrchestrator(b).Run(context.Background(), sources)
	assert.Equal(t, len(sources), run.Failed)
	assert.Empty(t, run.Envelopes)
}

func TestOrder_StablePhasePartition(t *testing.T) {
	in := []record.Source{
		{Name: "p1", Type: record.SourcePlayerSeason},
		{Name: "t1", Type: record.SourceTeamSnapshot},
		{Name: "p2", Type: record.SourceFederationPlayer},
		{Name: "t2", Type: record.SourceLeagueStandings},
	}
	var names []string
	for _, s := range pipeline.Order(in) {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"t1", "t2", "p1", "p2"}, names)
	assert.Equal(t, "p1", in[0].Name, "input is not reordered")
}

func TestTally_HighestCountWins(t *testing.T) {
	tally := pipeline.NewTally()
	tally.Observe(map[string]int{"indartsu": 9})
	tally.Observe(map[string]int{"indartsu": 10, "derio": 0})
	tally.Observe(map[string]int{"indartsu": 8})

	frozen := tally.Freeze()
	assert.Equal(t, map[string]int{"indartsu": 10, "derio": 0}, frozen)

	tally.Observe(map[string]int{"derio": 4})
	assert.Equal(t, 0, frozen["derio"], "frozen copy does not change")
}
