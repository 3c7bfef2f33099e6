package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/albapepper/futbol-tracker/internal/browser"
	"github.com/albapepper/futbol-tracker/internal/normalize"
	"github.com/albapepper/futbol-tracker/internal/record"
)

const missingField = "---"

var digitRe = regexp.MustCompile(`\d`)

var fixtureTextScript = fmt.Sprintf(
	`document.querySelectorAll(%q).length > 0`, matchLinkSelector+" bdi",
)

// LiveFixtures reads every match block on a live-score team page. All
// observed matches are kept, played or not.
type LiveFixtures struct{}

func (LiveFixtures) Extract(ctx context.Context, page browser.Page, task Task) (Result, error) {
	log := task.logger().With("source", task.Source.Name)
	acceptConsent(ctx, page, task)

	if err := page.WaitVisible(ctx, matchesTabSelector, task.Timeouts.Element); err != nil {
		return Result{}, elementNotFound(matchesTabSelector, err)
	}
	var clicked bool
	if err := page.Evaluate(ctx, clickScript(matchesTabSelector), &clicked); err != nil {
		return Result{}, fmt.Errorf("open matches tab: %w", err)
	}
	if err := page.WaitVisible(ctx, matchLinkSelector, task.Timeouts.Element); err != nil {
		return Result{}, elementNotFound(matchLinkSelector, err)
	}
	if err := page.WaitCondition(ctx, fixtureTextScript, task.Timeouts.Settle); err != nil {
		log.Info("match text not rendered yet, using current page", "error", err)
	}

	doc, err := document(ctx, page)
	if err != nil {
		return Result{}, err
	}

	var matches []record.Fixture
	doc.Find(matchLinkSelector).Each(func(_ int, link *goquery.Selection) {
		matches = append(matches, fixtureFromTokens(bdiTokens(link)))
	})
	if len(matches) == 0 {
		return Result{}, empty("no match blocks on %s", task.Source.URL)
	}

	list := &record.FixtureList{TeamKey: task.Source.Team, Matches: matches}
	return Result{Records: []record.Record{list}}, nil
}

func bdiTokens(s *goquery.Selection) []string {
	var out []string
	s.Find("bdi").Each(func(_ int, b *goquery.Selection) {
		if t := normalize.Text(b.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// fixtureFromTokens maps a match block's text tokens. The first token is
// the date; the first token that looks like a kickoff time or a score
// anchors the two team names that follow it.
func fixtureFromTokens(tokens []string) record.Fixture {
	at := func(i int) string {
		if i >= 0 && i < len(tokens) {
			return tokens[i]
		}
		return missingField
	}

	anchor := -1
	for i, t := range tokens {
		if strings.Contains(t, ":") || (strings.Contains(t, "-") && digitRe.MatchString(t)) {
			anchor = i
			break
		}
	}

	f := record.Fixture{
		Date:        at(0),
		TimeOrScore: missingField,
		HomeTeam:    missingField,
		AwayTeam:    missingField,
	}
	if anchor >= 0 {
		f.TimeOrScore = at(anchor)
		f.HomeTeam = at(anchor + 1)
		f.AwayTeam = at(anchor + 2)
	}
	return f
}
