package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/albapepper/futbol-tracker/internal/browser"
	"github.com/albapepper/futbol-tracker/internal/normalize"
	"github.com/albapepper/futbol-tracker/internal/record"
)

// --------------------------------------------------------------------------
// Federation fixture list
// --------------------------------------------------------------------------

// Federation round table: round number, a cell of h5 lines (team 1,
// team 2, "date time"), result.
const (
	fedRoundRowSelector = "tbody tr"
	fedRoundCol         = 0
	fedTeamsCol         = 1
	fedResultCol        = 2
	fedRoundMinCols     = 3

	homeMarker = "(home)"
	awayMarker = "(away)"
)

type fedRound struct {
	round  int
	team1  string
	team2  string
	date   string
	time   string
	result string
	played bool
}

// FederationFixtures reads a federation's round-by-round schedule for one
// team. It yields the team summary (last played, next unplayed) and the
// list of unplayed fixtures, and reports the highest played round as the
// team's matches played.
type FederationFixtures struct{}

func (FederationFixtures) Extract(ctx context.Context, page browser.Page, task Task) (Result, error) {
	doc, err := document(ctx, page)
	if err != nil {
		return Result{}, err
	}

	var rounds []fedRound
	doc.Find(fedRoundRowSelector).Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() < fedRoundMinCols {
			return
		}
		r := fedRound{result: normalize.Text(tds.Eq(fedResultCol).Text())}
		r.round, _ = normalize.LeadingInt(tds.Eq(fedRoundCol).Text())
		r.played = digitRe.MatchString(r.result)

		h5 := tds.Eq(fedTeamsCol).Find("h5")
		r.team1 = orMissing(normalize.Text(h5.Eq(0).Text()))
		r.team2 = orMissing(normalize.Text(h5.Eq(1).Text()))
		parts := strings.Fields(h5.Eq(2).Text())
		r.date = missingField
		r.time = missingField
		if len(parts) > 0 {
			r.date = parts[0]
		}
		if len(parts) > 1 {
			r.time = parts[1]
		}
		rounds = append(rounds, r)
	})
	if len(rounds) == 0 {
		return Result{}, empty("no round rows on %s", task.Source.URL)
	}

	tracked := task.Source.Tracked
	if tracked == "" {
		tracked = task.Source.Name
	}

	var (
		maxPlayed int
		last      *fedRound
		next      *fedRound
		upcoming  []record.Fixture
	)
	for i := range rounds {
		r := &rounds[i]
		if r.played {
			maxPlayed = max(maxPlayed, r.round)
			last = r
			continue
		}
		if next == nil {
			next = r
		}
		upcoming = append(upcoming, record.Fixture{
			Date:        r.date,
			TimeOrScore: r.time,
			HomeTeam:    r.team1,
			AwayTeam:    r.team2,
		})
	}

	summary := &record.TeamSummary{TeamName: task.Source.Name}
	if last != nil {
		summary.Last = &record.LastMatch{
			Opponent: opponent(*last, tracked),
			Date:     last.date,
			Score:    last.result,
			Round:    fmt.Sprintf("JORNADA %d", last.round),
		}
	}
	if next != nil {
		summary.Next = &record.NextMatch{
			Opponent: opponent(*next, tracked),
			Date:     next.date,
			Time:     next.time,
			Round:    fmt.Sprintf("JORNADA %d", next.round),
		}
	}

	res := Result{
		Records: []record.Record{summary},
		Played:  map[string]int{task.Source.Team: maxPlayed},
	}
	if len(upcoming) > 0 {
		res.Records = append(res.Records, &record.FixtureList{TeamKey: task.Source.Team, Matches: upcoming})
	}
	return res, nil
}

// opponent names the other side of r, marked with where the tracked team
// plays: it is at home when it is listed first.
func opponent(r fedRound, tracked string) string {
	if strings.Contains(strings.ToUpper(r.team1), strings.ToUpper(tracked)) {
		return r.team2 + " " + homeMarker
	}
	return r.team1 + " " + awayMarker
}

func orMissing(s string) string {
	if s == "" {
		return missingField
	}
	return s
}

// --------------------------------------------------------------------------
// Federation standings
// --------------------------------------------------------------------------

// Federation standings: position, -, name, -, then home P/W/D/L, away
// P/W/D/L, goals for, goals against.
const (
	fedTableSelector    = "table.table.table-bordered.table-striped"
	fedStandingsMinCols = 14
	fedPositionCol      = 0
	fedNameCol          = 2
	fedHomeCol          = 4
	fedAwayCol          = 8
	fedGoalsForCol      = 12
	fedGoalsAgainstCol  = 13
)

// FederationStandings reads a federation table that splits results into
// home and away. Totals are the sum of both splits.
type FederationStandings struct{}

func (FederationStandings) Extract(ctx context.Context, page browser.Page, task Task) (Result, error) {
	doc, err := document(ctx, page)
	if err != nil {
		return Result{}, err
	}

	var (
		rows []record.StandingsRow
		c    counter
	)
	doc.Find(fedTableSelector).First().Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cs := cells(tr)
		if len(cs) < fedStandingsMinCols {
			return
		}
		home := split(&c, cs, fedHomeCol, "casa")
		away := split(&c, cs, fedAwayCol, "fuera")
		row := record.StandingsRow{
			TeamName:     cs[fedNameCol],
			Played:       home.Played + away.Played,
			Won:          home.Won + away.Won,
			Drawn:        home.Drawn + away.Drawn,
			Lost:         home.Lost + away.Lost,
			GoalsFor:     c.at(cs, fedGoalsForCol, "GolesFavor"),
			GoalsAgainst: c.at(cs, fedGoalsAgainstCol, "GolesContra"),
			Home:         &home,
			Away:         &away,
		}
		row.Position, _ = normalize.LeadingInt(cs[fedPositionCol])
		rows = append(rows, row)
	})
	if c.err != nil {
		return Result{}, c.err
	}
	return standingsResult(task, rows)
}

func split(c *counter, cs []string, from int, label string) record.Split {
	return record.Split{
		Played: c.at(cs, from, label+".Jugados"),
		Won:    c.at(cs, from+1, label+".Ganados"),
		Drawn:  c.at(cs, from+2, label+".Empatados"),
		Lost:   c.at(cs, from+3, label+".Perdidos"),
	}
}

// --------------------------------------------------------------------------
// Federation player stats
// --------------------------------------------------------------------------

// Player stats page labels. Each label cell is followed by its value cell.
const (
	labelPlayed       = "Jokatutakoak"
	labelStarts       = "Hamaikakoan"
	labelSubstitute   = "Ordezkoa"
	labelGoals        = "Guztira"
	labelYellow       = "Txartel horia"
	labelDoubleYellow = "Txartel horia bikoitza"
	labelRed          = "Txartel gorria"
)

// FederationPlayer reads a federation player page, a flat list of
// label/value cells. Double-yellow and straight red cards add up to the
// red card count.
type FederationPlayer struct{}

func (FederationPlayer) Extract(ctx context.Context, page browser.Page, task Task) (Result, error) {
	doc, err := document(ctx, page)
	if err != nil {
		return Result{}, err
	}

	cs := cells(doc.Selection)
	values := make(map[string]string)
	for i, label := range cs {
		switch label {
		case labelPlayed, labelStarts, labelSubstitute, labelGoals, labelYellow, labelDoubleYellow, labelRed:
			values[label] = cell(cs, i+1)
		}
	}
	if len(values) == 0 {
		return Result{}, empty("no stat labels on %s", task.Source.URL)
	}

	var c counter
	stats := &record.PlayerStats{
		PlayerName:            task.Source.Name,
		MatchesPlayed:         c.of(values[labelPlayed], "PJ"),
		Starts:                c.of(values[labelStarts], "Tit"),
		SubstituteAppearances: c.of(values[labelSubstitute], "Sup"),
		Goals:                 c.of(values[labelGoals], "Goles"),
		YellowCards:           c.of(values[labelYellow], "Am"),
		RedCards:              c.of(values[labelDoubleYellow], "Roj") + c.of(values[labelRed], "Roj"),
	}
	if c.err != nil {
		return Result{}, c.err
	}
	return Result{Records: []record.Record{stats}}, nil
}
