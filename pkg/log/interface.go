// Package log provides the structured logging interface used across auctionml.
//
// The Logger interface is slog-compatible so the backend can be swapped. The
// default backend is zerolog (see provider.go); tests use TestLogger to capture
// and assert on emitted records.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("engine").With(
//	    log.DatasetIDKey, "lots-2024",
//	    log.ModelKindKey, "ensemble",
//	)
//	logger.Info("Training completed",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 1000,
//	    log.DurationMsKey, 42,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. When the first field passed to Error
// is an error value, implementations attach it as the error attribute together
// with its stack trace.
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs conditions that do not stop processing.
	//
	// Example:
	//   logger.Warn("Rows dropped during ingestion",
	//       log.SamplesKey, 3,
	//       log.DatasetIDKey, "lots-2024",
	//   )
	Warn(msg string, fields ...any)

	// Error logs failures. The first field may be an error.
	//
	// Example:
	//   logger.Error("Training failed", err,
	//       log.OperationKey, log.OperationFit,
	//   )
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates named loggers and controls their level.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
