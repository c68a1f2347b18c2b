package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/elastico/internal/progress"
	"github.com/vk/elastico/internal/testutil"
)

func writeJob(t *testing.T, address string) string {
	t.Helper()
	root := testutil.WriteFiles(t, map[string]string{
		"company.csv": testutil.CompaniesCSV,
		"job.hcl": fmt.Sprintf(`
source "csv" {
  path         = "company.csv"
  infer_schema = true
}

index "company" {
  bulk_size = 2
  id_field  = "domain"
  refresh   = true
}

cluster {
  addresses   = [%q]
  max_retries = 0
}
`, address),
	})
	return filepath.Join(root, "job.hcl")
}

func newTestApp(t *testing.T, cfg Config) (*App, *testutil.SafeBuffer) {
	t.Helper()
	config, err := NewConfig(cfg)
	require.NoError(t, err)

	out := &testutil.SafeBuffer{}
	a := NewApp(out, config)
	t.Cleanup(func() {
		a.Close()
		if os.Getenv("ELASTICO_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), out.String())
		}
	})
	return a, out
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(Config{Command: CommandInspect, JobPath: "job.hcl"})
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 20, cfg.Rows)

	testCases := []struct {
		name string
		cfg  Config
	}{
		{"missing job", Config{Command: CommandLoad}},
		{"unknown command", Config{Command: "drop", JobPath: "job.hcl"}},
		{"bad format", Config{Command: CommandLoad, JobPath: "job.hcl", LogFormat: "xml"}},
		{"bad level", Config{Command: CommandLoad, JobPath: "job.hcl", LogLevel: "trace"}},
		{"bad port", Config{Command: CommandLoad, JobPath: "job.hcl", HealthcheckPort: 70000}},
		{"bad url", Config{Command: CommandLoad, JobPath: "job.hcl", ESURL: "localhost"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewConfig(tc.cfg)
			require.ErrorContains(t, err, "invalid configuration")
		})
	}
}

func TestNewLogger_FileSink(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "elastico.log")
	var out strings.Builder

	logger, closer := newLogger("debug", "json", path, &out)
	require.NotNil(t, closer)
	logger.Debug("hello file", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello file"`)
	assert.Contains(t, out.String(), `"k":"v"`)

	_, closer = newLogger("info", "text", "", &out)
	assert.Nil(t, closer)
}

func TestRoutes(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t, Config{Command: CommandLoad, JobPath: "job.hcl"})
	srv := httptest.NewServer(a.routes())
	t.Cleanup(srv.Close)

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(srv.URL + "/progress")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)

	tracker := progress.NewTracker("company")
	tracker.AddRows(3)
	tracker.AddBatch(2, 1)
	a.tracker.Store(tracker)

	res, err = http.Get(srv.URL + "/progress")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var snap progress.Snapshot
	require.NoError(t, json.NewDecoder(res.Body).Decode(&snap))
	assert.Equal(t, "company", snap.Index)
	assert.EqualValues(t, 3, snap.Rows)
	assert.EqualValues(t, 1, snap.Failed)
}

func TestRun_Load(t *testing.T) {
	t.Parallel()
	fake := testutil.NewFakeElasticsearch(t)
	a, out := newTestApp(t, Config{Command: CommandLoad, JobPath: writeJob(t, fake.URL()), LogLevel: "debug"})

	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, out.String(), "index=company rows=5 indexed=5 failed=0 batches=3")
	assert.Contains(t, out.String(), "Connected to cluster.")
	assert.Len(t, fake.Docs("company"), 5)
	assert.True(t, a.tracker.Load().Snapshot().Done)
}

func TestRun_LoadWithOverrides(t *testing.T) {
	t.Parallel()
	fake := testutil.NewFakeElasticsearch(t)
	job := writeJob(t, "http://127.0.0.1:1")
	a, out := newTestApp(t, Config{Command: CommandLoad, JobPath: job, ESURL: fake.URL(), Workers: 1})

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "indexed=5")
}

func TestRun_LoadUnreachableCluster(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t, Config{Command: CommandLoad, JobPath: writeJob(t, "http://127.0.0.1:1")})

	err := a.Run(context.Background())
	require.ErrorContains(t, err, "cluster is not reachable")
}

func TestRun_Inspect(t *testing.T) {
	t.Parallel()
	a, out := newTestApp(t, Config{Command: CommandInspect, JobPath: writeJob(t, "http://unused:9200"), LogLevel: "error", Rows: 2, Truncate: true})

	require.NoError(t, a.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "root\n |-- name: string (nullable = true)\n")
	assert.Contains(t, got, " |-- year founded: integer (nullable = true)\n")
	assert.Contains(t, got, "only showing top 2 rows\n")
	assert.Contains(t, got, "|                 ibm|")
	assert.Contains(t, got, "count: 5\n")
}

func TestRun_InspectLogsToSeparateWriter(t *testing.T) {
	t.Parallel()
	config, err := NewConfig(Config{Command: CommandInspect, JobPath: writeJob(t, "http://unused:9200"), LogLevel: "debug", Rows: 2})
	require.NoError(t, err)

	out, logs := &testutil.SafeBuffer{}, &testutil.SafeBuffer{}
	a := NewApp(out, config, WithLogWriter(logs))
	defer a.Close()

	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, logs.String(), "App.Run method started.")
	assert.NotContains(t, out.String(), "level=")
	assert.True(t, strings.HasPrefix(out.String(), "root\n"), "output: %q", out.String())
	assert.Contains(t, out.String(), "count: 5\n")
}

func TestRun_JobErrors(t *testing.T) {
	t.Parallel()
	root := testutil.WriteFiles(t, map[string]string{"job.hcl": `source "csv" {`})
	a, _ := newTestApp(t, Config{Command: CommandLoad, JobPath: filepath.Join(root, "job.hcl")})

	err := a.Run(context.Background())
	require.ErrorContains(t, err, "failed to parse job file")
}
