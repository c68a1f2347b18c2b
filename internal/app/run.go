package app

import (
	"context"
	"fmt"

	"github.com/vk/elastico/internal/ctxlog"
	"github.com/vk/elastico/internal/job"
)

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	a.healthCheckServer()

	j, err := job.Load(ctx, a.config.JobPath)
	if err != nil {
		return err
	}
	a.applyOverrides(j)

	switch a.config.Command {
	case CommandLoad:
		err = a.load(ctx, j)
	case CommandInspect:
		err = a.inspect(ctx, j)
	default:
		err = fmt.Errorf("unknown command %q", a.config.Command)
	}
	if err != nil {
		return err
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// applyOverrides replaces job settings given on the command line.
func (a *App) applyOverrides(j *job.Job) {
	if a.config.Workers > 0 {
		a.logger.Debug("Overriding workers.", "job", j.Index.Workers, "flag", a.config.Workers)
		j.Index.Workers = a.config.Workers
	}
	if a.config.ESURL != "" {
		a.logger.Debug("Overriding cluster address.", "flag", a.config.ESURL)
		j.Cluster.Addresses = []string{a.config.ESURL}
	}
}
