// Package pipeline runs one extraction task per configured source,
// strictly one at a time, and collects normalized records for publishing.
//
// Tasks are isolated: a failing or panicking source is logged and the run
// moves on. Team-phase sources all run before any player-phase source,
// because player records derive matches missed from the team tally.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"github.com/albapepper/futbol-tracker/internal/browser"
	"github.com/albapepper/futbol-tracker/internal/extract"
	"github.com/albapepper/futbol-tracker/internal/normalize"
	"github.com/albapepper/futbol-tracker/internal/record"
)

// Orchestrator drives extraction tasks against one browser.
type Orchestrator struct {
	browser  browser.Browser
	registry extract.Registry
	timeouts extract.Timeouts
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// Options configures an Orchestrator.
type Options struct {
	Timeouts extract.Timeouts
	// Pacing is the minimum gap between navigations. Zero disables it.
	Pacing time.Duration
}

// New creates an orchestrator.
func New(b browser.Browser, reg extract.Registry, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if opts.Pacing > 0 {
		limit = rate.Every(opts.Pacing)
	}
	return &Orchestrator{
		browser:  b,
		registry: reg,
		timeouts: opts.Timeouts,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// Order returns sources in execution order: team phase first, then player
// phase, keeping catalog order within each phase.
func Order(sources []record.Source) []record.Source {
	out := slices.Clone(sources)
	slices.SortStableFunc(out, func(a, b record.Source) int {
		return int(a.Type.Phase()) - int(b.Type.Phase())
	})
	return out
}

// Run executes every source and returns the aggregate. It only stops early
// when ctx is cancelled; the remaining sources are then reported skipped.
func (o *Orchestrator) Run(ctx context.Context, sources []record.Source) RunResult {
	start := time.Now()
	ordered := Order(sources)
	result := RunResult{Sources: len(ordered)}

	tally := NewTally()
	var played map[string]int

	for i, src := range ordered {
		if err := ctx.Err(); err != nil {
			result.Skipped = len(ordered) - i
			result.Errors = append(result.Errors, fmt.Sprintf("run cancelled: %d sources skipped", result.Skipped))
			o.logger.Warn("run cancelled", "skipped", result.Skipped, "error", err)
			break
		}

		phase := src.Type.Phase()
		if phase == record.PhasePlayer && played == nil {
			played = tally.Freeze()
			o.logger.Info("team phase complete", "tally", played)
		}

		tr, res := o.runTask(ctx, src)
		result.Tasks = append(result.Tasks, tr)
		if !tr.Success {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", src.Name, tr.Error))
			continue
		}
		result.Succeeded++

		if phase == record.PhaseTeam {
			tally.Observe(res.Played)
		}
		for _, r := range res.Records {
			env := record.Envelope{Source: src.Name, Type: src.Type, Record: r}
			result.Envelopes = append(result.Envelopes, normalize.Apply(env, src.Team, played))
		}
	}

	if played == nil {
		played = tally.Freeze()
	}
	result.Played = played
	result.Duration = time.Since(start)

	o.logger.Info("extraction complete", "summary", result.Summary())
	return result
}

// runTask runs one source end to end and never panics.
func (o *Orchestrator) runTask(ctx context.Context, src record.Source) (TaskResult, extract.Result) {
	start := time.Now()
	log := o.logger.With("source", src.Name, "type", string(src.Type))
	tr := TaskResult{Source: src.Name, Type: src.Type, Phase: src.Type.Phase()}

	res, err := o.execute(ctx, src, log)
	tr.Duration = time.Since(start)
	if err != nil {
		tr.Error = err.Error()
		tr.Kind = extract.Kind(err)
		log.Warn("task failed", "kind", tr.Kind, "error", err, "dur", tr.Duration.Round(time.Millisecond))
		return tr, extract.Result{}
	}

	tr.Success = true
	tr.Records = len(res.Records)
	log.Info("task complete", "records", tr.Records, "played", res.Played, "dur", tr.Duration.Round(time.Millisecond))
	return tr, res
}

// execute owns the task's page: it is opened here and closed on every
// return path, panics included.
func (o *Orchestrator) execute(ctx context.Context, src record.Source, log *slog.Logger) (res extract.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = extract.Result{}, fmt.Errorf("panic: %v", r)
		}
	}()

	adapter, err := o.registry.Lookup(src.Type)
	if err != nil {
		return extract.Result{}, err
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return extract.Result{}, fmt.Errorf("pacing: %w", err)
	}

	page, err := o.browser.NewPage(ctx)
	if err != nil {
		return extract.Result{}, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Debug("close page", "error", cerr)
		}
	}()

	if err := page.Navigate(ctx, src.URL, o.timeouts.Navigation); err != nil {
		return extract.Result{}, extract.NavigationFailed(src.URL, err)
	}

	return adapter.Extract(ctx, page, extract.Task{Source: src, Timeouts: o.timeouts, Logger: log})
}
