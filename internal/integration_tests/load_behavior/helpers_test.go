package integration_tests

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/elastico/internal/app"
	"github.com/vk/elastico/internal/cli"
	"github.com/vk/elastico/internal/testutil"
)

// HarnessResult holds the outcomes of a command run.
type HarnessResult struct {
	Output string
	Err    error
	Root   string
}

// runCommand writes files into a temporary directory, then parses and runs
// the command line against it. "{job}" in args is replaced with the path
// of job.hcl in that directory.
func runCommand(t *testing.T, files map[string]string, args ...string) *HarnessResult {
	t.Helper()

	root := testutil.WriteFiles(t, files)
	for i, a := range args {
		if a == "{job}" {
			args[i] = filepath.Join(root, "job.hcl")
		}
	}

	out := &testutil.SafeBuffer{}
	config, shouldExit, err := cli.Parse(args, out)
	require.NoError(t, err)
	require.False(t, shouldExit)

	elastico := app.NewApp(out, config)
	runErr := elastico.Run(context.Background())
	require.NoError(t, elastico.Close())

	if os.Getenv("ELASTICO_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), out.String())
	}

	return &HarnessResult{Output: out.String(), Err: runErr, Root: root}
}

// companyJob renders a job file loading the companies sample into the fake
// cluster. extra is appended to the index block.
func companyJob(fake *testutil.FakeElasticsearch, extra string) string {
	return fmt.Sprintf(`
source "csv" {
  path         = "company.csv"
  infer_schema = true
}

index "company" {
  bulk_size = 2
%s
}

cluster {
  addresses   = [%q]
  max_retries = 0
}
`, extra, fake.URL())
}
