// Package progress tracks how far a load has got and pushes snapshots to
// reporters (the log, a socket.io dashboard).
package progress

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/vk/elastico/internal/ctxlog"
)

// Snapshot is a point-in-time view of a load.
type Snapshot struct {
	Index   string        `json:"index"`
	Rows    int64         `json:"rows"`
	Indexed int64         `json:"indexed"`
	Failed  int64         `json:"failed"`
	Batches int64         `json:"batches"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Done    bool          `json:"done"`
}

// Tracker accumulates counters from concurrent workers.
type Tracker struct {
	index   string
	started time.Time
	rows    atomic.Int64
	indexed atomic.Int64
	failed  atomic.Int64
	batches atomic.Int64
	done    atomic.Bool
}

// NewTracker starts tracking a load into index.
func NewTracker(index string) *Tracker {
	return &Tracker{index: index, started: time.Now()}
}

// AddRows records rows read from the source.
func (t *Tracker) AddRows(n int) { t.rows.Add(int64(n)) }

// AddBatch records the outcome of one bulk request.
func (t *Tracker) AddBatch(indexed, failed int) {
	t.indexed.Add(int64(indexed))
	t.failed.Add(int64(failed))
	t.batches.Add(1)
}

// Finish marks the load as complete.
func (t *Tracker) Finish() { t.done.Store(true) }

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		Index:   t.index,
		Rows:    t.rows.Load(),
		Indexed: t.indexed.Load(),
		Failed:  t.failed.Load(),
		Batches: t.batches.Load(),
		Elapsed: time.Since(t.started),
		Done:    t.done.Load(),
	}
}

// Reporter receives snapshots.
type Reporter interface {
	Report(ctx context.Context, s Snapshot) error
	Close() error
}

// LogReporter writes snapshots to the context logger.
type LogReporter struct{}

// Report implements Reporter.
func (LogReporter) Report(ctx context.Context, s Snapshot) error {
	ctxlog.FromContext(ctx).Debug("Load progress.",
		"index", s.Index,
		"rows", s.Rows,
		"indexed", s.Indexed,
		"failed", s.Failed,
		"batches", s.Batches,
		"elapsed", s.Elapsed.Round(time.Millisecond),
	)
	return nil
}

// Close implements Reporter.
func (LogReporter) Close() error { return nil }

// Multi fans a snapshot out to several reporters.
type Multi []Reporter

// Report implements Reporter. Every reporter is called even if one fails.
func (m Multi) Report(ctx context.Context, s Snapshot) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Reporter.
func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
