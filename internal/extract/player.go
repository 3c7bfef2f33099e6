package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/albapepper/futbol-tracker/internal/browser"
	"github.com/albapepper/futbol-tracker/internal/record"
)

// Season stats table: the totals row is the one holding a ".totals" cell.
const (
	seasonTableSelector = "table.zztable.stats"
	totalsMarker        = ".totals"

	seasonPlayedCol     = 1
	seasonStartsCol     = 7
	seasonSubstituteCol = 8
	seasonGoalsCol      = 9
	seasonYellowCol     = 12
	seasonRedCol        = 14
)

// GoalsRule says where a player's goals are on the season stats page.
// With Separator empty the goals are the whole cell at Column; otherwise
// the cell is split on Separator and Part is taken.
type GoalsRule struct {
	Column    int    `yaml:"column" validate:"gte=0"`
	Separator string `yaml:"separator,omitempty"`
	Part      int    `yaml:"part,omitempty" validate:"gte=0"`
}

// DefaultGoalsRule reads the dedicated goals column.
var DefaultGoalsRule = GoalsRule{Column: seasonGoalsCol}

func (g GoalsRule) read(cs []string) string {
	v := cell(cs, g.Column)
	if g.Separator == "" {
		return v
	}
	parts := strings.Split(v, g.Separator)
	if g.Part < len(parts) {
		return strings.TrimSpace(parts[g.Part])
	}
	return ""
}

// PlayerSeason reads a player's season totals. Goals maps player names to
// the rule for pages whose layout differs; others use DefaultGoalsRule.
type PlayerSeason struct {
	Goals map[string]GoalsRule
}

func (p PlayerSeason) rule(player string) GoalsRule {
	if r, ok := p.Goals[player]; ok {
		return r
	}
	return DefaultGoalsRule
}

func (p PlayerSeason) Extract(ctx context.Context, page browser.Page, task Task) (Result, error) {
	if err := page.WaitVisible(ctx, seasonTableSelector, task.Timeouts.Element); err != nil {
		return Result{}, elementNotFound(seasonTableSelector, err)
	}
	doc, err := document(ctx, page)
	if err != nil {
		return Result{}, err
	}

	totals := doc.Find(seasonTableSelector).First().Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Find(totalsMarker).Length() > 0
	}).First()
	if totals.Length() == 0 {
		return Result{}, empty("no totals row on %s", task.Source.URL)
	}
	cs := cells(totals)

	var c counter
	stats := &record.PlayerStats{
		PlayerName:            task.Source.Name,
		MatchesPlayed:         c.at(cs, seasonPlayedCol, "PJ"),
		Starts:                c.at(cs, seasonStartsCol, "Tit"),
		SubstituteAppearances: c.at(cs, seasonSubstituteCol, "Sup"),
		Goals:                 c.of(p.rule(task.Source.Name).read(cs), "Goles"),
		YellowCards:           c.at(cs, seasonYellowCol, "Am"),
		RedCards:              c.at(cs, seasonRedCol, "Roj"),
	}
	if c.err != nil {
		return Result{}, c.err
	}
	return Result{Records: []record.Record{stats}}, nil
}
