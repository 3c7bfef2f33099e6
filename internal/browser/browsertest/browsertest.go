// Package browsertest provides an in-memory browser.Browser that serves
// canned HTML per URL, with per-site failure injection.
package browsertest

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/albapepper/futbol-tracker/internal/browser"
)

// Site is the canned behavior of one URL.
type Site struct {
	HTML string

	NavigateErr error
	// Missing lists selectors that never become visible.
	Missing []string
	// ConditionErr is returned by WaitCondition.
	ConditionErr error
	// Eval is JSON-decoded into Evaluate's out. Nil leaves out untouched.
	Eval    any
	EvalErr error
	// Panic makes HTML panic with this value.
	Panic any
}

// Browser is a fake browser.Browser. Unknown URLs fail navigation.
type Browser struct {
	Sites      map[string]Site
	NewPageErr error

	mu     sync.Mutex
	pages  []*Page
	closed bool
}

var _ browser.Browser = (*Browser)(nil)

// New returns a browser serving sites.
func New(sites map[string]Site) *Browser {
	return &Browser{Sites: sites}
}

func (b *Browser) NewPage(ctx context.Context) (browser.Page, error) {
	if b.NewPageErr != nil {
		return nil, b.NewPageErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p := &Page{b: b}
	b.pages = append(b.pages, p)
	return p, nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

// Opened reports how many pages were created.
func (b *Browser) Opened() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pages)
}

// Open reports how many created pages were never closed.
func (b *Browser) Open() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, p := range b.pages {
		if !p.Closed() {
			n++
		}
	}
	return n
}

// Visited lists navigated URLs in order.
func (b *Browser) Visited() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var urls []string
	for _, p := range b.pages {
		p.mu.Lock()
		urls = append(urls, p.url)
		p.mu.Unlock()
	}
	return urls
}

// Page is a fake browser.Page bound to the Site it navigated to.
type Page struct {
	b *Browser

	mu     sync.Mutex
	url    string
	site   Site
	clicks []string
	steps  []string
	closed bool
}

var _ browser.Page = (*Page)(nil)

func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	site, ok := p.b.Sites[url]
	p.mu.Lock()
	p.url = url
	p.site = site
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("navigate %s: %w", url, browser.ErrTimeout)
	}
	return site.NavigateErr
}

func (p *Page) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if slices.Contains(p.site.Missing, selector) {
		return fmt.Errorf("wait visible %q: %w", selector, browser.ErrTimeout)
	}
	return ctx.Err()
}

func (p *Page) WaitCondition(ctx context.Context, predicate string, timeout time.Duration) error {
	p.step("wait: " + predicate)
	if p.site.ConditionErr != nil {
		return p.site.ConditionErr
	}
	return ctx.Err()
}

func (p *Page) Evaluate(ctx context.Context, expression string, out any) error {
	p.step("eval: " + expression)
	if p.site.EvalErr != nil {
		return p.site.EvalErr
	}
	if p.site.Eval == nil || out == nil {
		return nil
	}
	raw, err := json.Marshal(p.site.Eval)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (p *Page) Click(ctx context.Context, selector string) error {
	if slices.Contains(p.site.Missing, selector) {
		return fmt.Errorf("click %q: %w", selector, browser.ErrTimeout)
	}
	p.mu.Lock()
	p.clicks = append(p.clicks, selector)
	p.mu.Unlock()
	return nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	if p.site.Panic != nil {
		panic(p.site.Panic)
	}
	return p.site.HTML, ctx.Err()
}

func (p *Page) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Clicks lists clicked selectors in order.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.clicks)
}

// Steps lists condition waits ("wait: <predicate>") and evaluations
// ("eval: <expression>") in call order.
func (p *Page) Steps() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.steps)
}

func (p *Page) step(s string) {
	p.mu.Lock()
	p.steps = append(p.steps, s)
	p.mu.Unlock()
}
