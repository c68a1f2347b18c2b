package integration_tests

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/elastico/internal/spool"
	"github.com/vk/elastico/internal/testutil"
)

// Test for: spool mode writes a JSON-lines part file, uploads it and
// indexes from it
func TestLoad_Spool_WritesUploadsAndIndexes(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	fake := testutil.NewFakeElasticsearch(t)
	var uploads atomic.Int32
	bucket := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			uploads.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(bucket.Close)

	job := companyJob(fake, `  mode = "spool"`) + `
spool {
  dir        = "out"
  upload_url = "` + bucket.URL + `/company.json"
}
`
	files := map[string]string{
		"company.csv": testutil.CompaniesCSV,
		"job.hcl":     job,
	}

	// --- Act ---
	result := runCommand(t, files, "load", "{job}")

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Contains(t, result.Output, "indexed=5")
	assert.EqualValues(t, 1, uploads.Load())

	part, err := spool.FindPart(filepath.Join(result.Root, "out", "company_data"))
	require.NoError(t, err)
	data, err := os.ReadFile(part)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 5)
	assert.Len(t, fake.Docs("company"), 5)
}
