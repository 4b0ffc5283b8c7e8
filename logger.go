package blobkv

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with blobkv-specific context.
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
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithDir adds the store directory to every record.
func (l *Logger) WithDir(dir string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dir", dir),
	}
}

// LogCompaction logs the compaction step of a save.
func (l *Logger) LogCompaction(ctx context.Context, moved, remapped int, err error) {
	if err != nil {
		l.WarnContext(ctx, "compaction incomplete",
			"moved", moved,
			"remapped", remapped,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "compaction completed",
			"moved", moved,
			"remapped", remapped,
		)
	}
}

// LogSave logs a save operation.
func (l *Logger) LogSave(ctx context.Context, items int, logBytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"items", items,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "save completed",
			"items", items,
			"log_bytes", logBytes,
		)
	}
}

// LogRecovery logs how the key file was reconciled with the log on open.
func (l *Logger) LogRecovery(ctx context.Context, loaded, dangling, orphaned int) {
	if dangling > 0 || orphaned > 0 {
		l.WarnContext(ctx, "key file out of sync with log",
			"loaded", loaded,
			"dangling_keys", dangling,
			"orphaned_records", orphaned,
		)
	} else {
		l.DebugContext(ctx, "keys loaded",
			"loaded", loaded,
		)
	}
}

// LogSnapshot logs a snapshot upload.
func (l *Logger) LogSnapshot(ctx context.Context, generation uint64, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"generation", generation,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot uploaded",
			"generation", generation,
			"bytes", bytes,
		)
	}
}

// LogRestore logs a snapshot download.
func (l *Logger) LogRestore(ctx context.Context, generation uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"generation", generation,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot restored",
			"generation", generation,
		)
	}
}
