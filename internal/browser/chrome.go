package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// Options configures the Chrome process and every tab it opens.
type Options struct {
	Headless  bool
	NoSandbox bool
	ExecPath  string // empty: chromedp's lookup

	UserAgent      string
	AcceptLanguage string
	Width, Height  int

	// ActionTimeout bounds clicks and evaluations.
	ActionTimeout time.Duration
}

// Chrome is a Browser backed by one headless Chrome process.
type Chrome struct {
	opts          Options
	logger        *slog.Logger
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

var _ Browser = (*Chrome)(nil)

// NewChrome launches Chrome. The process lives until Close.
func NewChrome(ctx context.Context, opts Options, logger *slog.Logger) (*Chrome, error) {
	if logger == nil {
		logger = slog.Default()
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", opts.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("lang", opts.AcceptLanguage),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	logger.Info("chrome started",
		"headless", opts.Headless,
		"viewport", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"lang", opts.AcceptLanguage,
	)

	return &Chrome{
		opts:          opts,
		logger:        logger,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

// NewPage opens a tab with the configured viewport, user agent and
// accept-language applied.
func (c *Chrome) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	p := &chromePage{ctx: tabCtx, cancel: cancel, actionTimeout: c.opts.ActionTimeout}

	// The first Run binds the target to the context it is given, so it must
	// be tabCtx itself and not a derived, timeout-bounded one.
	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(tabCtx)
	stop()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}

	setup := []chromedp.Action{
		chromedp.EmulateViewport(int64(c.opts.Width), int64(c.opts.Height)),
	}
	if c.opts.UserAgent != "" {
		setup = append(setup, emulation.SetUserAgentOverride(c.opts.UserAgent).
			WithAcceptLanguage(c.opts.AcceptLanguage))
	}
	if err := p.run(ctx, c.opts.ActionTimeout, setup...); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return p, nil
}

func (c *Chrome) Close() error {
	c.browserCancel()
	c.allocCancel()
	return nil
}

// --------------------------------------------------------------------------
// Page
// --------------------------------------------------------------------------

type chromePage struct {
	ctx           context.Context
	cancel        context.CancelFunc
	actionTimeout time.Duration
	closeOnce     sync.Once
}

// run executes actions on the tab, bounded by timeout and by the caller's
// ctx. Cancelling a derived context leaves the tab open.
func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(p.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, chromedp.ErrPollingTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *chromePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return p.run(ctx, timeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (p *chromePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return p.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (p *chromePage) WaitCondition(ctx context.Context, predicate string, timeout time.Duration) error {
	var ok bool
	opts := []chromedp.PollOption{chromedp.WithPollingInterval(250 * time.Millisecond)}
	if timeout > 0 {
		opts = append(opts, chromedp.WithPollingTimeout(timeout))
	}
	return p.run(ctx, 0, chromedp.Poll(predicate, &ok, opts...))
}

func (p *chromePage) Evaluate(ctx context.Context, expression string, out any) error {
	return p.run(ctx, p.actionTimeout, chromedp.Evaluate(expression, out))
}

func (p *chromePage) Click(ctx context.Context, selector string) error {
	return p.run(ctx, p.actionTimeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, p.actionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Close closes the tab. Safe to call more than once.
func (p *chromePage) Close() error {
	p.closeOnce.Do(p.cancel)
	return nil
}
