package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/elastico/internal/app"
	"github.com/vk/elastico/internal/dataset"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var (
		parsed *app.Config
		global app.Config
		rows   int
		trunc  bool
	)

	rootCmd := &cobra.Command{
		Use:   "elastico",
		Short: "Bulk load CSV files into Elasticsearch",
		Long: `elastico reads a delimited text file, derives an index mapping from its
columns and bulk indexes every row into Elasticsearch.

Usage:
  elastico load JOB_FILE
  elastico inspect JOB_FILE [--rows N]`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(output)
	rootCmd.SetErr(output)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&global.LogFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.StringVar(&global.LogLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.StringVar(&global.LogFile, "log-file", "", "Also write logs to this file, rotated by size.")
	flags.IntVar(&global.HealthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	flags.IntVar(&global.Workers, "workers", 0, "Number of concurrent bulk workers. 0 keeps the job setting.")
	flags.StringVar(&global.ESURL, "es-url", "", "Elasticsearch address, replacing the job's cluster addresses.")

	// capture records the selected command instead of running it.
	capture := func(command string) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, a []string) error {
			cfg := global
			cfg.Command = command
			cfg.JobPath = a[0]
			cfg.LogFormat = strings.ToLower(cfg.LogFormat)
			cfg.LogLevel = strings.ToLower(cfg.LogLevel)
			if command == app.CommandInspect {
				cfg.Rows = rows
				cfg.Truncate = trunc
			}

			config, err := app.NewConfig(cfg)
			if err != nil {
				return err
			}
			parsed = config
			return nil
		}
	}

	loadCmd := &cobra.Command{
		Use:   "load JOB_FILE",
		Short: "Create the index and bulk load the job source into it",
		Args:  cobra.ExactArgs(1),
		RunE:  capture(app.CommandLoad),
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect JOB_FILE",
		Short: "Print the schema, the first rows and the row count of the job source",
		Args:  cobra.ExactArgs(1),
		RunE:  capture(app.CommandInspect),
	}
	inspectCmd.Flags().IntVar(&rows, "rows", dataset.DefaultShowRows, "Number of rows to preview.")
	inspectCmd.Flags().BoolVar(&trunc, "truncate", true, "Cut cells longer than 20 characters.")

	rootCmd.AddCommand(loadCmd, inspectCmd)

	if err := rootCmd.Execute(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	// Help output or a bare invocation.
	if parsed == nil {
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config", parsed)
	return parsed, false, nil
}
