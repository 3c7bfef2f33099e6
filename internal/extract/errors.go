package extract

import (
	"context"

	crerr "github.com/cockroachdb/errors"

	"github.com/albapepper/futbol-tracker/internal/browser"
)

// Failure taxonomy for extraction tasks. Errors are marked with one of
// these and the original cause stays in the chain. Marks are only visible
// to crerr.Is, not the standard library's errors.Is.
var (
	ErrNavigationTimeout = crerr.New("navigation timeout")
	ErrElementNotFound   = crerr.New("interaction element not found")
	ErrEmpty             = crerr.New("extraction empty")
	ErrParse             = crerr.New("parse error")
)

// NavigationFailed classifies a Page.Navigate error.
func NavigationFailed(url string, err error) error {
	wrapped := crerr.Wrapf(err, "navigate %s", url)
	if crerr.Is(err, browser.ErrTimeout) || crerr.Is(err, context.DeadlineExceeded) {
		return crerr.Mark(wrapped, ErrNavigationTimeout)
	}
	return wrapped
}

func elementNotFound(selector string, err error) error {
	return crerr.Mark(crerr.Wrapf(err, "wait for %s", selector), ErrElementNotFound)
}

func parseFailed(field string, err error) error {
	return crerr.Mark(crerr.Wrapf(err, "field %s", field), ErrParse)
}

func empty(format string, args ...any) error {
	return crerr.Mark(crerr.Newf(format, args...), ErrEmpty)
}

// Kind names the taxonomy class of err for logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case crerr.Is(err, ErrNavigationTimeout):
		return "NavigationTimeout"
	case crerr.Is(err, ErrElementNotFound):
		return "InteractionElementNotFound"
	case crerr.Is(err, ErrEmpty):
		return "ExtractionEmpty"
	case crerr.Is(err, ErrParse):
		return "ParseError"
	default:
		return "Unclassified"
	}
}
