package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/vk/elastico/internal/ctxlog"
	"github.com/vk/elastico/internal/dataset"
	"github.com/vk/elastico/internal/job"
	"github.com/vk/elastico/internal/spool"
)

// documentSource yields JSON documents in chunks. Next returns io.EOF once
// no document is left.
type documentSource interface {
	Next(n int) ([][]byte, error)
	Close() error
}

// openSource returns the document source for the job mode and, in spool
// mode, the path of the part file written.
func openSource(ctx context.Context, j *job.Job, reader *dataset.Reader, client *http.Client) (documentSource, string, error) {
	if j.Index.Mode != job.ModeSpool {
		return &rowSource{reader: reader, schema: reader.Schema()}, "", nil
	}

	logger := ctxlog.FromContext(ctx)
	if _, _, err := spool.Write(ctx, j.Spool.Dir, j.Index.Name, reader); err != nil {
		return nil, "", err
	}
	part, err := spool.FindPart(spool.Dir(j.Spool.Dir, j.Index.Name))
	if err != nil {
		return nil, "", err
	}

	if j.Spool.UploadURL != "" {
		if client == nil {
			client = http.DefaultClient
		}
		if err := spool.Upload(ctx, client, part, j.Spool.UploadURL); err != nil {
			return nil, "", fmt.Errorf("failed to upload spool: %w", err)
		}
	}

	chunks, err := spool.OpenChunks(part)
	if err != nil {
		return nil, "", err
	}
	logger.Debug("Reading documents from spool.", "path", part)
	return chunks, part, nil
}

// rowSource encodes rows straight from the dataset reader.
type rowSource struct {
	reader *dataset.Reader
	schema dataset.Schema
}

func (s *rowSource) Next(n int) ([][]byte, error) {
	docs := make([][]byte, 0, n)
	for len(docs) < n {
		row, err := s.reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		doc, err := row.JSON(s.schema)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, io.EOF
	}
	return docs, nil
}

// Close is a no-op; the reader is owned by Run.
func (s *rowSource) Close() error { return nil }
