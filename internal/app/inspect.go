package app

import (
	"context"
	"fmt"

	"github.com/vk/elastico/internal/dataset"
	"github.com/vk/elastico/internal/job"
)

// inspect prints the schema, a preview and the row count of the job source.
func (a *App) inspect(ctx context.Context, j *job.Job) error {
	r, err := dataset.Open(j.Source)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer r.Close()

	schema := r.Schema()
	if err := schema.Print(a.outW); err != nil {
		return err
	}

	rows, more, err := dataset.Head(ctx, r, a.config.Rows)
	if err != nil {
		return err
	}
	if err := dataset.Show(a.outW, schema, rows, more, a.config.Truncate); err != nil {
		return err
	}

	rest, err := dataset.Count(ctx, r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.outW, "count: %d\n", len(rows)+rest)
	return err
}
