package loader

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/vk/elastico/internal/ctxlog"
	"github.com/vk/elastico/internal/progress"
	"github.com/vk/elastico/internal/search"
)

type batch struct {
	seq  int
	docs []search.Document
}

// pool fans batches out to a fixed number of bulk workers.
type pool struct {
	index    string
	workers  int
	writer   BulkWriter
	tracker  *progress.Tracker
	reporter progress.Reporter

	wg       sync.WaitGroup
	errOnce  sync.Once
	firstErr error
}

// run reads src in chunks of size and blocks until every batch has been
// written or the run failed. The first failure cancels the remaining work
// and is returned.
func (p *pool) run(ctx context.Context, src documentSource, size int, ids idFunc) error {
	logger := ctxlog.FromContext(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	batchChan := make(chan batch, p.workers)

	logger.Debug("Starting worker pool.", "workers", p.workers, "bulkSize", size)
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.worker(runCtx, batchChan, cancel, i)
	}

	produceErr := p.produce(runCtx, src, size, ids, batchChan)
	close(batchChan)

	logger.Debug("Waiting for workers to drain...")
	p.wg.Wait()

	if produceErr != nil && !errors.Is(produceErr, context.Canceled) {
		p.fail(cancel, produceErr)
	}
	if p.firstErr != nil {
		return p.firstErr
	}
	// The parent context was cancelled without any batch failing.
	return ctx.Err()
}

func (p *pool) produce(ctx context.Context, src documentSource, size int, ids idFunc, out chan<- batch) error {
	for seq := 0; ; seq++ {
		raw, err := src.Next(size)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		docs := make([]search.Document, len(raw))
		for i, doc := range raw {
			docs[i] = search.Document{ID: ids(doc), Source: doc}
		}
		p.tracker.AddRows(len(docs))

		select {
		case out <- batch{seq: seq, docs: docs}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// worker is the processing loop of a single bulk worker.
func (p *pool) worker(ctx context.Context, batchChan <-chan batch, cancel context.CancelFunc, workerID int) {
	defer p.wg.Done()
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for b := range batchChan {
		workerLogger := logger.With("workerID", workerID, "batch", b.seq)

		if ctx.Err() != nil {
			workerLogger.Debug("Context canceled, skipping batch.")
			continue
		}

		res, err := p.writer.Bulk(ctx, p.index, b.docs, "")
		if err != nil {
			workerLogger.Error("Bulk request failed.", "error", err)
			p.fail(cancel, err)
			continue
		}

		for _, item := range res.Errors {
			workerLogger.Warn("Document rejected.",
				"position", item.Position,
				"id", item.ID,
				"status", item.Status,
				"type", item.Type,
				"reason", item.Reason,
			)
		}
		p.tracker.AddBatch(res.Indexed, res.Failed)
		workerLogger.Debug("Batch written.", "docs", len(b.docs), "indexed", res.Indexed, "failed", res.Failed)

		if err := p.reporter.Report(ctx, p.tracker.Snapshot()); err != nil {
			workerLogger.Warn("Failed to report progress.", "error", err)
		}
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

func (p *pool) fail(cancel context.CancelFunc, err error) {
	p.errOnce.Do(func() {
		p.firstErr = err
		cancel()
	})
}
