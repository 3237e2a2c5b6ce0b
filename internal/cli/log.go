// Package cli implements the forger command-line interface.
//
// The commands drive the library packages directly: browsing goes through
// the discovery service, downloads through the batch downloader and the
// delivery resolver, icon sets through the generation orchestrator.
//
// # Commands
//
//   - collections, icons, search: browse the Iconify catalog
//   - download, download-collection: fetch, convert and deliver icons
//   - favorites: manage favorite icons and collections
//   - generate: build platform icon sets from one image
//   - settings: show and edit persisted preferences
//   - serve: run the browser download server with metrics
//   - cache: manage the vector source cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// travels in the command context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing timestamps as "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of an operation when it is done.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Downloaded mdi (1.234s)".
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append([]any{"took", time.Since(p.start).Round(time.Millisecond)}, keyvals...)...)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context carrying l.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the context logger or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
