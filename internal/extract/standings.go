package extract

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"github.com/albapepper/futbol-tracker/internal/browser"
	"github.com/albapepper/futbol-tracker/internal/normalize"
	"github.com/albapepper/futbol-tracker/internal/record"
)

// League table columns: position, -, name, -, played, won, drawn, lost,
// goals for, goals against.
const (
	leagueTableSelector = "#tableClasif"
	leagueMinCols       = 10
	leaguePositionCol   = 0
	leagueNameCol       = 2
	leaguePlayedCol     = 4
	leagueWonCol        = 5
	leagueDrawnCol      = 6
	leagueLostCol       = 7
	leagueGoalsForCol   = 8
	leagueGoalsAgainst  = 9
)

// LeagueStandings reads a league classification table. The row whose name
// equals the source's tracked name sets the team's matches played.
type LeagueStandings struct{}

func (LeagueStandings) Extract(ctx context.Context, page browser.Page, task Task) (Result, error) {
	doc, err := document(ctx, page)
	if err != nil {
		return Result{}, err
	}

	var (
		rows []record.StandingsRow
		c    counter
	)
	doc.Find(leagueTableSelector).Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cs := cells(tr)
		if len(cs) < leagueMinCols {
			return
		}
		row := record.StandingsRow{
			TeamName:     cs[leagueNameCol],
			Played:       c.at(cs, leaguePlayedCol, "Jugados"),
			Won:          c.at(cs, leagueWonCol, "Ganados"),
			Drawn:        c.at(cs, leagueDrawnCol, "Empatados"),
			Lost:         c.at(cs, leagueLostCol, "Perdidos"),
			GoalsFor:     c.at(cs, leagueGoalsForCol, "GolesFavor"),
			GoalsAgainst: c.at(cs, leagueGoalsAgainst, "GolesContra"),
		}
		row.Position, _ = normalize.LeadingInt(cs[leaguePositionCol])
		rows = append(rows, row)
	})
	if c.err != nil {
		return Result{}, c.err
	}
	return standingsResult(task, rows)
}

// standingsResult wraps rows into the table record and picks out the
// tracked team's matches played.
func standingsResult(task Task, rows []record.StandingsRow) (Result, error) {
	if len(rows) == 0 {
		return Result{}, empty("no standings rows on %s", task.Source.URL)
	}
	res := Result{
		Records: []record.Record{&record.StandingsTable{TeamKey: task.Source.DisplayName(), Rows: rows}},
	}
	if task.Source.Tracked == "" {
		return res, nil
	}
	for _, r := range rows {
		if r.TeamName == task.Source.Tracked {
			res.Played = map[string]int{task.Source.Team: r.Played}
			return res, nil
		}
	}
	task.logger().Warn("tracked team not in standings",
		"source", task.Source.Name,
		"tracked", task.Source.Tracked,
	)
	return res, nil
}
