package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/elastico/internal/ctxlog"
	"github.com/vk/elastico/internal/dataset"
	"github.com/zclconf/go-cty/cty"
)

// Load parses, resolves and validates the job file at path. Relative
// source and spool paths are resolved against the directory of the file.
func Load(ctx context.Context, path string) (*Job, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Job loader started.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse job file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, evalContext(), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode job file %s: %w", path, diags)
	}

	j, err := resolve(&root, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("job file %s: %w", path, err)
	}
	j.File = path

	if err := j.Validate(); err != nil {
		return nil, fmt.Errorf("job file %s: %w", path, err)
	}

	logger.Debug("Job loaded.", "index", j.Index.Name, "source", j.Source.Path, "mode", j.Index.Mode)
	return j, nil
}

// evalContext exposes the process environment as the `env` object. Names
// that are not identifiers are reachable as env["NAME"].
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			vars[pair[0]] = cty.StringVal(pair[1])
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

// resolve applies defaults and converts the decoded blocks into a Job.
func resolve(root *fileRoot, baseDir string) (*Job, error) {
	if len(root.Sources) != 1 {
		return nil, fmt.Errorf("expected exactly one source block, found %d", len(root.Sources))
	}
	if len(root.Indices) != 1 {
		return nil, fmt.Errorf("expected exactly one index block, found %d", len(root.Indices))
	}

	source, err := resolveSource(root.Sources[0], baseDir)
	if err != nil {
		return nil, err
	}
	cluster, err := resolveCluster(root.Cluster)
	if err != nil {
		return nil, err
	}

	j := &Job{
		Source:  source,
		Index:   resolveIndex(root.Indices[0]),
		Cluster: cluster,
	}

	if root.Spool != nil {
		j.Spool = &Spool{
			Dir:       absolute(baseDir, root.Spool.Dir),
			UploadURL: root.Spool.UploadURL,
		}
	}

	for _, p := range root.Progress {
		if p.Kind != "socketio" {
			return nil, fmt.Errorf("unsupported progress reporter %q", p.Kind)
		}
		j.Progress = append(j.Progress, Progress{
			URL:                p.URL,
			Namespace:          p.Namespace,
			Event:              p.Event,
			InsecureSkipVerify: p.InsecureSkipVerify,
		})
	}
	return j, nil
}

func resolveSource(b *sourceBlock, baseDir string) (dataset.Options, error) {
	if b.Kind != "csv" {
		return dataset.Options{}, fmt.Errorf("unsupported source kind %q", b.Kind)
	}

	opts := dataset.Options{
		Path:        absolute(baseDir, b.Path),
		Delimiter:   ",",
		Header:      true,
		NullValue:   b.NullValue,
		Comment:     b.Comment,
		InferSchema: b.InferSchema,
		InferSample: b.InferSample,
	}
	if b.Delimiter != nil {
		opts.Delimiter = *b.Delimiter
	}
	if b.Header != nil {
		opts.Header = *b.Header
	}

	if len(b.Columns) > 0 {
		opts.Casts = make(map[string]dataset.DataType, len(b.Columns))
		for col, name := range b.Columns {
			t, err := dataset.ParseDataType(name)
			if err != nil {
				return dataset.Options{}, fmt.Errorf("column %q: %w", col, err)
			}
			opts.Casts[col] = t
		}
	}
	return opts, nil
}

func resolveIndex(b *indexBlock) Index {
	idx := Index{
		Name:            b.Name,
		Recreate:        true,
		Mode:            b.Mode,
		BulkSize:        b.BulkSize,
		Workers:         b.Workers,
		IDField:         b.IDField,
		IDHash:          b.IDHash,
		Refresh:         b.Refresh,
		Strict:          b.Strict,
		Shards:          b.Shards,
		Replicas:        b.Replicas,
		RefreshInterval: b.RefreshInterval,
	}
	if b.Recreate != nil {
		idx.Recreate = *b.Recreate
	}
	if idx.Mode == "" {
		idx.Mode = ModeDirect
	}
	if idx.BulkSize == 0 {
		idx.BulkSize = defaultBulkSize
	}
	if idx.Workers == 0 {
		idx.Workers = defaultWorkers
	}
	return idx
}

func resolveCluster(b *clusterBlock) (Cluster, error) {
	c := Cluster{
		Addresses:  []string{defaultAddress},
		Timeout:    defaultTimeout,
		MaxRetries: defaultMaxRetries,
	}
	if b == nil {
		return c, nil
	}

	if len(b.Addresses) > 0 {
		c.Addresses = b.Addresses
	}
	c.Username = b.Username
	c.Password = b.Password
	c.APIKey = b.APIKey
	c.CACert = b.CACert
	c.InsecureSkipVerify = b.InsecureSkipVerify
	if b.Timeout != "" {
		d, err := time.ParseDuration(b.Timeout)
		if err != nil {
			return Cluster{}, fmt.Errorf("cluster timeout: %w", err)
		}
		c.Timeout = d
	}
	if b.MaxRetries != nil {
		c.MaxRetries = *b.MaxRetries
	}
	return c, nil
}

func absolute(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
