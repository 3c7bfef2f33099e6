// Package browser is the page-automation capability the extraction adapters
// run against. Adapters see only Browser and Page; Chrome drives a real
// headless Chrome through chromedp and browsertest serves canned pages.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout marks a bounded wait or navigation that ran out of time.
var ErrTimeout = errors.New("browser: timed out")

// Browser hands out pages. One page per extraction task.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is one tab. Every blocking call honors ctx and its own timeout;
// a zero timeout means ctx alone bounds the call.
type Page interface {
	// Navigate loads url and waits for the document to be ready.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// WaitVisible waits until an element matching the CSS selector is visible.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// WaitCondition polls a JavaScript expression until it is truthy.
	WaitCondition(ctx context.Context, predicate string, timeout time.Duration) error
	// Evaluate runs a JavaScript expression and decodes its result into out.
	Evaluate(ctx context.Context, expression string, out any) error
	Click(ctx context.Context, selector string) error
	// HTML returns the rendered document.
	HTML(ctx context.Context) (string, error)
	Close() error
}
