package xref

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with xref-specific context.
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
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithRecord adds the id of the record being processed.
func (l *Logger) WithRecord(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("record", id),
	}
}

// LogSkip logs a refused merge against a pinned cluster. Skips are expected
// and only visible at debug level.
func (l *Logger) LogSkip(ctx context.Context, anchor, id string) {
	l.DebugContext(ctx, "skipped merging of pinned identifier",
		"anchor", anchor,
		"id", id,
	)
}

// LogConflict logs a refused merge between two identifiers that the corpus
// claims are equal.
func (l *Logger) LogConflict(ctx context.Context, anchor, id string) {
	l.WarnContext(ctx, "merge conflict",
		"anchor", anchor,
		"id", id,
	)
}

// LogMappingConflict logs a configured mapping that could not be installed.
func (l *Logger) LogMappingConflict(ctx context.Context, ref, target string) {
	l.WarnContext(ctx, "mapping conflict",
		"ref", ref,
		"target", target,
	)
}

// LogStartup logs the installed configuration.
func (l *Logger) LogStartup(ctx context.Context, properties, mappings, mnemonics int) {
	l.InfoContext(ctx, "xref configured",
		"properties", properties,
		"mappings", mappings,
		"mnemonics", mnemonics,
	)
}

// LogFlush logs the output of a build.
func (l *Logger) LogFlush(ctx context.Context, output string, clusters, symbols int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "xref flush failed",
			"output", output,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "xref flushed",
			"output", output,
			"clusters", clusters,
			"symbols", symbols,
		)
	}
}

// LogCounters logs the final counter values of a run.
func (l *Logger) LogCounters(ctx context.Context, counters map[string]int64) {
	args := make([]any, 0, 2*len(counters))
	for _, name := range sortedNames(counters) {
		args = append(args, name, counters[name])
	}
	l.InfoContext(ctx, "xref counters", args...)
}
