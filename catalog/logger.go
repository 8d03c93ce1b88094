package catalog

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with catalog-specific helpers so every
// operation logs the same field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler
// falls back to a text handler on stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all output. Used by tests.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithID tags the logger with a record id.
func (l *Logger) WithID(id string) *Logger {
	return &Logger{Logger: l.Logger.With("id", id)}
}

// LogDigest logs one digest operation.
func (l *Logger) LogDigest(id string, rebuild bool, err error) {
	if err != nil {
		l.Error("digest failed", "id", id, "rebuild", rebuild, "error", err)
	} else {
		l.Debug("digest completed", "id", id, "rebuild", rebuild)
	}
}

// LogUnDigest logs one un-digest operation.
func (l *Logger) LogUnDigest(id string, deleted bool, err error) {
	if err != nil {
		l.Error("un-digest failed", "id", id, "error", err)
	} else {
		l.Debug("un-digest completed", "id", id, "deleted", deleted)
	}
}

// LogRebuild logs a full index rebuild.
func (l *Logger) LogRebuild(records int, err error) {
	if err != nil {
		l.Error("rebuild failed", "records", records, "error", err)
	} else {
		l.Info("rebuild completed", "records", records)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(query string, results int) {
	l.Debug("search completed", "query", query, "results", results)
}

// LogImport logs an archive import.
func (l *Logger) LogImport(imported, skipped, failed int) {
	if failed > 0 {
		l.Warn("import completed with failures",
			"imported", imported, "skipped", skipped, "failed", failed)
	} else {
		l.Info("import completed", "imported", imported, "skipped", skipped)
	}
}
