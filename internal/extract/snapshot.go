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

// Live-score team page markup.
const (
	matchesTabSelector = `button[data-testid="tab-matches"]`
	matchLinkSelector  = `a[data-id]`
	resultsContainer   = `div.pb_sm.pt_xs`
	teamNameSelector   = `bdi.trunc_true`
	scoreSelector      = `span.score`

	// The first team-name and score tokens of a match block belong to
	// something else; home and away are the next two.
	snapshotHomeOffset = 1
	snapshotAwayOffset = 2

	finishedMarker = "Final"
)

// The "Resultados" sub-tab has no stable identifier, so it is found by its
// label among interactive elements. It renders some time after the matches
// tab is opened.
const resultsTabQuery = `Array.from(document.querySelectorAll('button, a, [role="tab"]')).find(t => /Resultados/i.test(t.innerText))`

// resultsTabReadyScript holds once the sub-tab exists.
const resultsTabReadyScript = `!!` + resultsTabQuery

// resultsTabScript clicks the sub-tab and reports whether it was found.
const resultsTabScript = `(() => {
	const tab = ` + resultsTabQuery + `;
	if (!tab) return false;
	tab.scrollIntoView();
	tab.click();
	return true;
})()`

var finishedScript = fmt.Sprintf(
	`Array.from(document.querySelectorAll(%q)).some(a => a.innerText.includes(%q))`,
	matchLinkSelector, finishedMarker,
)

// TeamSnapshot reads a team's most recent finished match from a live-score
// team page. It only ever extracts the first listed match.
type TeamSnapshot struct{}

func (TeamSnapshot) Extract(ctx context.Context, page browser.Page, task Task) (Result, error) {
	log := task.logger().With("source", task.Source.Name)
	acceptConsent(ctx, page, task)

	if err := page.WaitVisible(ctx, matchesTabSelector, task.Timeouts.Element); err != nil {
		return Result{}, elementNotFound(matchesTabSelector, err)
	}
	var clicked bool
	if err := page.Evaluate(ctx, clickScript(matchesTabSelector), &clicked); err != nil {
		return Result{}, fmt.Errorf("open matches tab: %w", err)
	}

	if err := page.WaitCondition(ctx, resultsTabReadyScript, task.Timeouts.Settle); err != nil {
		log.Info("results tab did not render in time", "error", err)
	}
	if err := page.Evaluate(ctx, resultsTabScript, &clicked); err != nil || !clicked {
		log.Warn("results tab not activated", "error", err)
	}
	if err := page.WaitCondition(ctx, finishedScript, task.Timeouts.Settle); err != nil {
		log.Info("no finished match appeared, using current page", "error", err)
	}

	doc, err := document(ctx, page)
	if err != nil {
		return Result{}, err
	}

	summary := &record.TeamSummary{TeamName: task.Source.Name, Last: lastFinished(doc)}
	if summary.Last == nil {
		log.Warn("no complete match block found")
	}
	return Result{Records: []record.Record{summary}}, nil
}

// lastFinished reads the first match block in the results container. It
// returns nil unless both team names and both scores are present.
func lastFinished(doc *goquery.Document) *record.LastMatch {
	matches := doc.Find(resultsContainer).First().Find(matchLinkSelector)
	if matches.Length() == 0 {
		return nil
	}
	block := matches.First()

	var names []string
	block.Find(teamNameSelector).Each(func(_ int, s *goquery.Selection) {
		names = append(names, normalize.Text(s.Text()))
	})

	var scores []string
	block.Find(scoreSelector).Each(func(_ int, s *goquery.Selection) {
		t := normalize.Text(s.Text())
		// Kickoff times share the score slot before a match is played.
		if t != "" && !strings.Contains(t, ":") {
			scores = append(scores, t)
		}
	})

	if len(names) <= snapshotAwayOffset || len(scores) <= snapshotAwayOffset {
		return nil
	}

	date := "---"
	if d := block.Find("bdi").First(); d.Length() > 0 {
		date = normalize.Text(d.Text())
	}

	return &record.LastMatch{
		HomeTeam: names[snapshotHomeOffset],
		AwayTeam: names[snapshotAwayOffset],
		Date:     date,
		Score:    scores[snapshotHomeOffset] + " - " + scores[snapshotAwayOffset],
		Round:    fmt.Sprintf("JORNADA %d", matches.Length()),
	}
}
