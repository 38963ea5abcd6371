// Package logctx carries a *log.Logger through a context.Context, the
// same pattern the teacher's application/common logger used (there keyed
// on a "container" concept; here keyed on ship/task/agent identity since
// this fleet is single-agent and single-process).
package logctx

import (
	"context"
	"fmt"
	"log"
	"os"
)

type loggerKey struct{}

// New builds a logger writing to stdout/stderr/a file per LoggingConfig's
// Output field, prefixed with the fleet's callsign.
func New(callsign, output, filePath string) *log.Logger {
	var out *os.File
	switch output {
	case "stderr":
		out = os.Stderr
	case "file":
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			out = os.Stdout
		} else {
			out = f
		}
	default:
		out = os.Stdout
	}
	return log.New(out, fmt.Sprintf("[%s] ", callsign), log.LstdFlags|log.Lmicroseconds)
}

// WithLogger returns a context carrying logger, reachable via FromContext.
func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the context's logger, or log.Default() if none was
// attached — callers never have to nil-check.
func FromContext(ctx context.Context) *log.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*log.Logger); ok && logger != nil {
		return logger
	}
	return log.Default()
}

// ForShip scopes a logger to a single ship's activity, used by the
// per-ship executor goroutines so log lines self-identify their ship.
func ForShip(ctx context.Context, shipSymbol string) *log.Logger {
	base := FromContext(ctx)
	return log.New(base.Writer(), fmt.Sprintf("%s[%s] ", base.Prefix(), shipSymbol), base.Flags())
}
