package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/vk/elastico/internal/ctxlog"
	"github.com/vk/elastico/internal/progress"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	ctx        context.Context
	logger     *slog.Logger
	logFile    io.Closer
	config     *Config
	httpServer *http.Server

	// tracker is the progress of the running load, served on /progress.
	tracker atomic.Pointer[progress.Tracker]
}

// Option customizes an App built by NewApp.
type Option func(*options)

type options struct {
	logW io.Writer
}

// WithLogWriter sends log records to w instead of the command output.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) {
		o.logW = w
	}
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger.
func NewApp(outW io.Writer, config *Config, opts ...Option) *App {
	o := options{logW: outW}
	for _, opt := range opts {
		opt(&o)
	}

	logger, logFile := newLogger(config.LogLevel, config.LogFormat, config.LogFile, o.logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.", "file", config.LogFile)

	return &App{
		outW:    outW,
		ctx:     ctx,
		logger:  logger,
		logFile: logFile,
		config:  config,
	}
}

// Close stops the health check server and flushes the log file.
func (a *App) Close() error {
	err := a.closeHealthCheckServer()
	if a.logFile != nil {
		if cerr := a.logFile.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
