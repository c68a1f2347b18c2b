// Package spool writes a dataset to a directory of JSON-lines part files
// and reads those files back in fixed-size chunks.
package spool

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/vk/elastico/internal/ctxlog"
	"github.com/vk/elastico/internal/dataset"
)

// PartPrefix is the name prefix of the single part file a spool writes.
const PartPrefix = "part-00000-"

// ErrNoPart is returned when a spool directory holds no part file.
var ErrNoPart = errors.New("no part file found")

// Dir returns the spool directory of an index under root.
func Dir(root, index string) string {
	return filepath.Join(root, index+"_data")
}

// Write replaces the spool directory of index under root with a single part
// file holding every remaining row of r, one JSON object per line. It
// returns the path of the part file and the number of rows written.
func Write(ctx context.Context, root, index string, r *dataset.Reader) (string, int, error) {
	logger := ctxlog.FromContext(ctx).With("index", index)
	dir := Dir(root, index)

	if err := os.RemoveAll(dir); err != nil {
		return "", 0, fmt.Errorf("failed to clear spool directory '%s': %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create spool directory '%s': %w", dir, err)
	}

	path := filepath.Join(dir, PartPrefix+uuid.NewString()+".json")
	file, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create part file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	schema := r.Schema()
	rows := 0
	err = dataset.Scan(ctx, r, func(row dataset.Row) error {
		doc, err := row.JSON(schema)
		if err != nil {
			return err
		}
		if _, err := w.Write(doc); err != nil {
			return err
		}
		rows++
		return w.WriteByte('\n')
	})
	if err != nil {
		return "", rows, fmt.Errorf("failed to spool rows: %w", err)
	}
	if err := w.Flush(); err != nil {
		return "", rows, fmt.Errorf("failed to flush part file: %w", err)
	}
	if err := file.Sync(); err != nil {
		return "", rows, fmt.Errorf("failed to sync part file: %w", err)
	}

	logger.Info("Dataset spooled.", "path", path, "rows", rows)
	return path, rows, nil
}

// FindPart returns the first part file in dir.
func FindPart(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to list spool directory '%s': %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), PartPrefix) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w in '%s'", ErrNoPart, dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}

// ChunkReader reads JSON documents from a part file.
type ChunkReader struct {
	file    *os.File
	scanner *bufio.Scanner
	line    int
}

// OpenChunks opens a part file for chunked reading.
func OpenChunks(path string) (*ChunkReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open part file '%s': %w", path, err)
	}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &ChunkReader{file: file, scanner: scanner}, nil
}

// Next returns up to n documents. It returns io.EOF once the file is
// exhausted and no document was read.
func (c *ChunkReader) Next(n int) ([][]byte, error) {
	docs := make([][]byte, 0, n)
	for len(docs) < n && c.scanner.Scan() {
		c.line++
		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			continue
		}
		if !gjson.Valid(line) || !gjson.Parse(line).IsObject() {
			return nil, fmt.Errorf("line %d of part file is not a JSON object", c.line)
		}
		docs = append(docs, []byte(line))
	}
	if err := c.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read part file: %w", err)
	}
	if len(docs) == 0 {
		return nil, io.EOF
	}
	return docs, nil
}

// Close releases the part file.
func (c *ChunkReader) Close() error {
	return c.file.Close()
}
