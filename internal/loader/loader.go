package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vk/elastico/internal/ctxlog"
	"github.com/vk/elastico/internal/dataset"
	"github.com/vk/elastico/internal/job"
	"github.com/vk/elastico/internal/mapping"
	"github.com/vk/elastico/internal/progress"
	"github.com/vk/elastico/internal/search"
)

// ErrItemsFailed is returned by strict jobs when the cluster rejected at
// least one document.
var ErrItemsFailed = errors.New("documents were rejected")

// BulkWriter sends one batch of documents.
type BulkWriter interface {
	Bulk(ctx context.Context, index string, docs []search.Document, refresh string) (search.BulkResult, error)
}

// IndexManager prepares and refreshes the target index.
type IndexManager interface {
	Recreate(ctx context.Context, name string, mp mapping.Mapping) error
	Ensure(ctx context.Context, name string, mp mapping.Mapping) (bool, error)
	Refresh(ctx context.Context, name string) error
}

// Deps are the collaborators of a run. Tracker and Reporter are optional.
type Deps struct {
	Writer   BulkWriter
	Indices  IndexManager
	Tracker  *progress.Tracker
	Reporter progress.Reporter
	// HTTPClient uploads the spool part file when the job names an
	// upload URL. http.DefaultClient is used when nil.
	HTTPClient *http.Client
}

// Summary is the outcome of a run.
type Summary struct {
	Index     string
	Rows      int
	Indexed   int
	Failed    int
	Batches   int
	Duration  time.Duration
	SpoolFile string
}

// Run executes j. Item level rejections are counted and logged; they only
// fail the run for strict jobs. Any request level failure cancels the run.
func Run(ctx context.Context, j *job.Job, deps Deps) (Summary, error) {
	started := time.Now()
	idx := j.Index
	logger := ctxlog.FromContext(ctx).With("index", idx.Name)
	ctx = ctxlog.WithLogger(ctx, logger)

	if deps.Tracker == nil {
		deps.Tracker = progress.NewTracker(idx.Name)
	}
	if deps.Reporter == nil {
		deps.Reporter = progress.LogReporter{}
	}

	reader, err := dataset.Open(j.Source)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to open source: %w", err)
	}
	defer reader.Close()

	schema := reader.Schema()
	logger.Info("Source opened.", "path", j.Source.Path, "columns", len(schema.Fields))
	for _, f := range schema.Fields {
		logger.Debug("Column resolved.", "name", f.Name, "type", f.Type)
	}
	if !idx.IDHash && idx.IDField != "" && schema.Index(idx.IDField) < 0 {
		return Summary{}, fmt.Errorf("id_field %q: %w", idx.IDField, dataset.ErrUnknownColumn)
	}

	if err := prepareIndex(ctx, j, schema, deps.Indices); err != nil {
		return Summary{}, err
	}

	src, spoolFile, err := openSource(ctx, j, reader, deps.HTTPClient)
	if err != nil {
		return Summary{}, err
	}
	defer src.Close()

	p := &pool{
		index:    idx.Name,
		workers:  idx.Workers,
		writer:   deps.Writer,
		tracker:  deps.Tracker,
		reporter: deps.Reporter,
	}
	runErr := p.run(ctx, src, idx.BulkSize, newIDFunc(idx))

	deps.Tracker.Finish()
	final := deps.Tracker.Snapshot()
	if err := deps.Reporter.Report(ctx, final); err != nil {
		logger.Warn("Failed to report final progress.", "error", err)
	}

	summary := Summary{
		Index:     idx.Name,
		Rows:      int(final.Rows),
		Indexed:   int(final.Indexed),
		Failed:    int(final.Failed),
		Batches:   int(final.Batches),
		SpoolFile: spoolFile,
	}

	if runErr != nil {
		summary.Duration = time.Since(started)
		return summary, fmt.Errorf("load into '%s' failed: %w", idx.Name, runErr)
	}

	if idx.Refresh {
		if err := deps.Indices.Refresh(ctx, idx.Name); err != nil {
			summary.Duration = time.Since(started)
			return summary, err
		}
		logger.Debug("Index refreshed.")
	}

	summary.Duration = time.Since(started)
	logger.Info("Load finished.",
		"rows", summary.Rows,
		"indexed", summary.Indexed,
		"failed", summary.Failed,
		"batches", summary.Batches,
		"duration", summary.Duration,
	)

	if idx.Strict && summary.Failed > 0 {
		return summary, fmt.Errorf("%w: %d of %d documents into '%s'", ErrItemsFailed, summary.Failed, summary.Rows, idx.Name)
	}
	return summary, nil
}

func prepareIndex(ctx context.Context, j *job.Job, schema dataset.Schema, indices IndexManager) error {
	logger := ctxlog.FromContext(ctx)

	mp, err := mapping.FromSchema(schema)
	if err != nil {
		return fmt.Errorf("failed to derive mapping: %w", err)
	}
	mp.Settings = j.Index.MappingSettings()

	if j.Index.Recreate {
		if err := indices.Recreate(ctx, j.Index.Name, mp); err != nil {
			return fmt.Errorf("failed to recreate index: %w", err)
		}
		logger.Info("Index recreated.")
		return nil
	}

	created, err := indices.Ensure(ctx, j.Index.Name, mp)
	if err != nil {
		return fmt.Errorf("failed to ensure index: %w", err)
	}
	logger.Info("Index ready.", "created", created)
	return nil
}
