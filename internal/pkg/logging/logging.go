package logging

import (
	"context"
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"
)

// NewHandler returns a human readable handler for interactive tools,
// prefixed with the component name.
func NewHandler(w io.Writer, name string, level slog.Level) slog.Handler {
	return charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          name,
		Level:           charmlog.Level(level),
	})
}

// New returns a logger built on NewHandler.
func New(w io.Writer, name string, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(w, name, level))
}

type ctxKey struct{}

// IntoContext adds a logger to a context. Use FromContext to
// pull the logger out.
func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns a logger from a context.Context;
// if the passed context is nil or carries none, the default slog
// logger is returned.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}
