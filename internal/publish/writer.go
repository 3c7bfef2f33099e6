package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/albapepper/futbol-tracker/internal/normalize"
	"github.com/albapepper/futbol-tracker/internal/record"
	"github.com/albapepper/futbol-tracker/internal/store"
)

// ErrCommit marks a failed batch commit. It is fatal for the run.
var ErrCommit = crerr.New("commit failure")

// Writer gates, keys and persists records.
type Writer struct {
	store  store.Store
	dryRun bool
	logger *slog.Logger
}

// NewWriter creates a writer. With dryRun the batch is built and logged
// but never committed.
func NewWriter(s store.Store, dryRun bool, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{store: s, dryRun: dryRun, logger: logger}
}

// Result tracks the outcome of one publish.
type Result struct {
	Written    int
	Rejected   int
	Collisions int
	Keys       []string
	Committed  bool
	Duration   time.Duration
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	return fmt.Sprintf("written=%d rejected=%d collisions=%d committed=%v dur=%s",
		r.Written, r.Rejected, r.Collisions, r.Committed, r.Duration.Round(time.Millisecond))
}

// Write persists every accepted envelope in one batch with merge
// semantics. A rejected record is logged and skipped. Two different names
// that map to the same key are a collision: the first one wins and the
// rest are skipped. The returned error, if any, is marked ErrCommit.
func (w *Writer) Write(ctx context.Context, envs []record.Envelope) (Result, error) {
	start := time.Now()
	var res Result

	batch := w.store.Batch()
	owners := make(map[string]string)

	for _, d := range Gate(envs) {
		env := d.Envelope
		if !d.Accept {
			res.Rejected++
			w.logger.Info("record rejected", "record", env.String(), "reason", d.Reason)
			continue
		}

		key := normalize.DocID(env.Record.Category(), env.Record.Name())
		if owner, seen := owners[key]; seen && owner != env.Record.Name() {
			res.Collisions++
			w.logger.Error("document key collision, skipping",
				"key", key, "kept", owner, "skipped", env.Record.Name(), "source", env.Source)
			continue
		}
		owners[key] = env.Record.Name()

		fields, err := Fields(env.Record)
		if err != nil {
			return res, crerr.Mark(crerr.Wrapf(err, "encode %s", key), ErrCommit)
		}
		batch.Set(key, fields)
		res.Written++
		w.logger.Debug("record queued", "key", key, "source", env.Source)
	}

	res.Keys = make([]string, 0, len(owners))
	for k := range owners {
		res.Keys = append(res.Keys, k)
	}
	sort.Strings(res.Keys)

	switch {
	case w.dryRun:
		w.logger.Info("dry run, batch not committed", "documents", batch.Len(), "keys", res.Keys)
	case batch.Len() == 0:
		w.logger.Info("nothing to publish")
	default:
		if err := batch.Commit(ctx); err != nil {
			res.Duration = time.Since(start)
			return res, crerr.Mark(crerr.Wrapf(err, "commit %d documents", batch.Len()), ErrCommit)
		}
		res.Committed = true
	}

	res.Duration = time.Since(start)
	w.logger.Info("publish complete", "summary", res.Summary())
	return res, nil
}

// Fields is the persisted body of r: its JSON form as a generic map.
func Fields(r record.Record) (map[string]any, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
