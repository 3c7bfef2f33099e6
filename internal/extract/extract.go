// Package extract turns loaded pages into typed records. There is one
// adapter per source shape; each keeps its selectors and column offsets as
// named constants because they are coupled to one site's markup.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/albapepper/futbol-tracker/internal/browser"
	"github.com/albapepper/futbol-tracker/internal/normalize"
	"github.com/albapepper/futbol-tracker/internal/record"
)

// Timeouts bound the waits adapters perform on a loaded page.
type Timeouts struct {
	Navigation time.Duration
	Element    time.Duration // essential selector waits
	Settle     time.Duration // soft waits for client-side content
	Consent    time.Duration
}

// Task is one extraction: a source and how long its waits may take.
type Task struct {
	Source   record.Source
	Timeouts Timeouts
	Logger   *slog.Logger
}

func (t Task) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

// Result is what one task contributes to the run. Played carries the team
// matches-played counts this source observed, keyed by team key.
type Result struct {
	Records []record.Record
	Played  map[string]int
}

// Adapter extracts records from a page that is already at the source URL.
type Adapter interface {
	Extract(ctx context.Context, page browser.Page, task Task) (Result, error)
}

// Registry maps each source type to its adapter.
type Registry map[record.SourceType]Adapter

// NewRegistry returns the adapter for every known source type. goals is
// the per-player goals parsing table used by the player-season adapter.
func NewRegistry(goals map[string]GoalsRule) Registry {
	return Registry{
		record.SourceTeamSnapshot:        TeamSnapshot{},
		record.SourceLiveFixtures:        LiveFixtures{},
		record.SourceFederationFixtures:  FederationFixtures{},
		record.SourceLeagueStandings:     LeagueStandings{},
		record.SourceFederationStandings: FederationStandings{},
		record.SourcePlayerSeason:        PlayerSeason{Goals: goals},
		record.SourceFederationPlayer:    FederationPlayer{},
	}
}

// Lookup returns the adapter for t.
func (r Registry) Lookup(t record.SourceType) (Adapter, error) {
	a, ok := r[t]
	if !ok {
		return nil, fmt.Errorf("no adapter for source type %q", t)
	}
	return a, nil
}

// --------------------------------------------------------------------------
// Shared page helpers
// --------------------------------------------------------------------------

const consentSelector = `button[id*="onetrust-accept"], button.fc-cta-consent`

// acceptConsent dismisses a cookie banner if one shows up in time. Absence
// is normal.
func acceptConsent(ctx context.Context, page browser.Page, task Task) {
	if err := page.WaitVisible(ctx, consentSelector, task.Timeouts.Consent); err != nil {
		task.logger().Debug("no consent banner", "source", task.Source.Name)
		return
	}
	if err := page.Click(ctx, consentSelector); err != nil {
		task.logger().Debug("consent click failed", "source", task.Source.Name, "error", err)
	}
}

// clickScript clicks the first element matching selector from inside the
// page, which bypasses overlays that intercept pointer events. It reports
// whether the element existed.
func clickScript(selector string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%q);
	if (!el) return false;
	el.scrollIntoView();
	el.click();
	return true;
})()`, selector)
}

// document parses the rendered page.
func document(ctx context.Context, page browser.Page) (*goquery.Document, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, parseFailed("html", err)
	}
	return doc, nil
}

// cells returns the normalized text of every td in row.
func cells(row *goquery.Selection) []string {
	tds := row.Find("td")
	out := make([]string, tds.Length())
	tds.Each(func(i int, td *goquery.Selection) {
		out[i] = normalize.Text(td.Text())
	})
	return out
}

// cell returns cs[i], or "" when the row is shorter.
func cell(cs []string, i int) string {
	if i < len(cs) {
		return cs[i]
	}
	return ""
}

// counter parses named numeric cells, keeping the first failure.
type counter struct {
	err error
}

func (c *counter) at(cs []string, i int, field string) int {
	n, err := normalize.Count(cell(cs, i))
	if err != nil && c.err == nil {
		c.err = parseFailed(field, err)
	}
	return n
}

func (c *counter) of(s, field string) int {
	n, err := normalize.Count(s)
	if err != nil && c.err == nil {
		c.err = parseFailed(field, err)
	}
	return n
}
