package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/elastico/internal/app"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		args           []string
		expectExit     bool
		expectErr      bool
		expectedConfig *app.Config
		checkOutput    func(t *testing.T, output string)
	}{
		{
			name: "Load with all global flags",
			args: []string{
				"load", "/jobs/company.hcl",
				"--log-level=debug",
				"--log-format=json",
				"--log-file=/tmp/elastico.log",
				"--workers=8",
				"--healthcheck-port=8080",
				"--es-url=http://es:9200",
			},
			expectedConfig: &app.Config{
				Command:         app.CommandLoad,
				JobPath:         "/jobs/company.hcl",
				LogLevel:        "debug",
				LogFormat:       "json",
				LogFile:         "/tmp/elastico.log",
				Workers:         8,
				HealthcheckPort: 8080,
				ESURL:           "http://es:9200",
			},
		},
		{
			name: "Load defaults",
			args: []string{"load", "job.hcl"},
			expectedConfig: &app.Config{
				Command:   app.CommandLoad,
				JobPath:   "job.hcl",
				LogLevel:  "info",
				LogFormat: "text",
			},
		},
		{
			name: "Inspect defaults",
			args: []string{"inspect", "job.hcl"},
			expectedConfig: &app.Config{
				Command:   app.CommandInspect,
				JobPath:   "job.hcl",
				LogLevel:  "info",
				LogFormat: "text",
				Rows:      20,
				Truncate:  true,
			},
		},
		{
			name: "Inspect with rows and global flag before the command",
			args: []string{"--log-level=WARN", "inspect", "job.hcl", "--rows", "5", "--truncate=false"},
			expectedConfig: &app.Config{
				Command:   app.CommandInspect,
				JobPath:   "job.hcl",
				LogLevel:  "warn",
				LogFormat: "text",
				Rows:      5,
			},
		},
		{
			name:       "Help flag triggers clean exit",
			args:       []string{"-h"},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				require.True(t, strings.Contains(output, "Usage:"), "Expected help text to be printed")
			},
		},
		{
			name:       "No command triggers clean exit with usage",
			args:       []string{},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				require.True(t, strings.Contains(output, "Usage:"), "Expected help text to be printed")
			},
		},
		{
			name:      "Missing job file returns an error",
			args:      []string{"load"},
			expectErr: true,
		},
		{
			name:      "Unknown command returns an error",
			args:      []string{"drop", "job.hcl"},
			expectErr: true,
		},
		{
			name:      "Rows flag is only known to inspect",
			args:      []string{"load", "job.hcl", "--rows=3"},
			expectErr: true,
		},
		{
			name:      "Invalid log level returns an error",
			args:      []string{"load", "job.hcl", "--log-level=foo"},
			expectErr: true,
		},
		{
			name:      "Invalid log format returns an error",
			args:      []string{"load", "job.hcl", "--log-format=yaml"},
			expectErr: true,
		},
		{
			name:      "Invalid cluster url returns an error",
			args:      []string{"load", "job.hcl", "--es-url=/es"},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			out := &bytes.Buffer{}

			// --- Act ---
			config, shouldExit, err := Parse(tc.args, out)

			// --- Assert ---
			if tc.expectErr {
				require.Error(t, err)
				exitErr, isExitError := err.(*ExitError)
				require.True(t, isExitError, "Expected error to be of type ExitError")
				require.Equal(t, 2, exitErr.Code)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expectExit, shouldExit)

			if tc.checkOutput != nil {
				tc.checkOutput(t, out.String())
			}

			if diff := cmp.Diff(tc.expectedConfig, config); diff != "" {
				t.Errorf("Config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
