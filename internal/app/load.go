package app

import (
	"context"
	"fmt"

	"github.com/vk/elastico/internal/ctxlog"
	"github.com/vk/elastico/internal/job"
	"github.com/vk/elastico/internal/loader"
	"github.com/vk/elastico/internal/progress"
	"github.com/vk/elastico/internal/search"
)

// load runs the job against the cluster and prints the summary.
func (a *App) load(ctx context.Context, j *job.Job) error {
	logger := ctxlog.FromContext(ctx)

	client, err := search.NewClient(ctx, j.Cluster.SearchSettings())
	if err != nil {
		return err
	}
	defer client.Close()

	name, version, err := client.Info(ctx)
	if err != nil {
		return fmt.Errorf("cluster is not reachable: %w", err)
	}
	logger.Info("Connected to cluster.", "cluster", name, "version", version)

	reporter, err := a.reporters(ctx, j)
	if err != nil {
		return err
	}
	defer reporter.Close()

	tracker := progress.NewTracker(j.Index.Name)
	a.tracker.Store(tracker)

	logger.Info("🚀 Starting load...", "index", j.Index.Name, "mode", j.Index.Mode, "workers", j.Index.Workers)
	summary, err := loader.Run(ctx, j, loader.Deps{
		Writer:   client,
		Indices:  client.Indices(),
		Tracker:  tracker,
		Reporter: reporter,
	})
	if summary.Index != "" {
		fmt.Fprintf(a.outW, "index=%s rows=%d indexed=%d failed=%d batches=%d duration=%s\n",
			summary.Index, summary.Rows, summary.Indexed, summary.Failed, summary.Batches, summary.Duration)
	}
	if err != nil {
		return err
	}
	logger.Info("🏁 Load finished.")
	return nil
}

// reporters connects every progress endpoint of the job. The log reporter
// is always present.
func (a *App) reporters(ctx context.Context, j *job.Job) (progress.Reporter, error) {
	reporters := progress.Multi{progress.LogReporter{}}
	for _, p := range j.Progress {
		r, err := progress.DialSocketIO(ctx, p.SocketIOSettings())
		if err != nil {
			reporters.Close()
			return nil, fmt.Errorf("failed to connect progress reporter: %w", err)
		}
		reporters = append(reporters, r)
	}
	return reporters, nil
}
