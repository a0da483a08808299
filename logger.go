package qbasis

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/qbasis/basis"
	"github.com/hupe1980/qbasis/nlce"
)

// Logger wraps slog.Logger with qbasis-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithSites adds a sites field to the logger.
func (l *Logger) WithSites(sites int) *Logger {
	return &Logger{Logger: l.Logger.With("sites", sites)}
}

// WithOrder adds an expansion order field to the logger.
func (l *Logger) WithOrder(order int) *Logger {
	return &Logger{Logger: l.Logger.With("order", order)}
}

// WithSector tags the logger with the quantum numbers of a symmetry sector.
func (l *Logger) WithSector(q ...int) *Logger {
	return &Logger{Logger: l.Logger.With("sector", q)}
}

// LogBuild logs a finished basis build.
func (l *Logger) LogBuild(ctx context.Context, st basis.Stats) {
	if st.Err != nil {
		l.ErrorContext(ctx, "basis build failed",
			"kind", st.Kind,
			"parallel", st.Parallel,
			"threads", st.Threads,
			"tested", st.Tested,
			"error", st.Err,
		)
		return
	}
	l.InfoContext(ctx, "basis build completed",
		"kind", st.Kind,
		"parallel", st.Parallel,
		"threads", st.Threads,
		"tested", st.Tested,
		"accepted", st.Accepted,
		"duration", st.Duration,
	)
}

// LogStage logs a finished expansion stage.
func (l *Logger) LogStage(ctx context.Context, ev nlce.Event) {
	l.DebugContext(ctx, "nlce stage completed",
		"stage", string(ev.Stage),
		"order", ev.Order,
		"inputs", ev.Inputs,
		"outputs", ev.Outputs,
		"duration", ev.Duration,
	)
}

// LogExpansion logs a finished expansion.
func (l *Logger) LogExpansion(ctx context.Context, order, clusters int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "expansion failed",
			"order", order,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "expansion completed",
		"order", order,
		"clusters", clusters,
	)
}

// LogSave logs an artifact write.
func (l *Logger) LogSave(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "artifact save failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "artifact saved",
		"name", name,
	)
}

// LogLoad logs an artifact read.
func (l *Logger) LogLoad(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "artifact load failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "artifact loaded",
		"name", name,
	)
}
