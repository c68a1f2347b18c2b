package integration_tests

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vk/elastico/internal/cli"
)

// Test for: displays help
func TestCLI_DisplaysHelp_WhenNoCommandIsProvided(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	outW := &bytes.Buffer{}

	// --- Act ---
	appConfig, shouldExit, err := cli.Parse([]string{}, outW)

	// --- Assert ---
	if err != nil {
		t.Fatalf("cli.Parse() returned an unexpected error: %v", err)
	}

	if !shouldExit {
		t.Fatal("cli.Parse() should have indicated an exit, but it did not")
	}

	for _, want := range []string{"Usage:", "load", "inspect"} {
		if !strings.Contains(outW.String(), want) {
			t.Errorf("expected output to contain %q, but got:\n%s", want, outW.String())
		}
	}

	// If the program is exiting to show help, no config should be returned.
	if appConfig != nil {
		t.Errorf("expected appConfig to be nil when exiting, but it was not")
	}
}

// Test for: displays subcommand help
func TestCLI_DisplaysInspectHelp(t *testing.T) {
	t.Parallel()

	outW := &bytes.Buffer{}
	appConfig, shouldExit, err := cli.Parse([]string{"inspect", "--help"}, outW)

	if err != nil {
		t.Fatalf("cli.Parse() returned an unexpected error: %v", err)
	}
	if !shouldExit || appConfig != nil {
		t.Fatalf("expected a clean exit without config, got exit=%t config=%v", shouldExit, appConfig)
	}
	if !strings.Contains(outW.String(), "--rows") {
		t.Errorf("expected inspect help to list --rows, got:\n%s", outW.String())
	}
}
