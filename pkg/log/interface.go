// Package log provides a structured logging interface for the solvers and
// estimators.
//
// The interface is slog-shaped so callers can pass key/value pairs; the
// default implementation writes JSON lines through zerolog. Solver progress is
// logged at DEBUG, cap-reached and fallback events at WARN.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("linear").With(
//	    log.SolverKey, "L2R_LR",
//	)
//	logger.Debug("iteration",
//	    log.IterationKey, 3,
//	    log.ObjectiveKey, 12.5,
//	)
package log

import (
	"context"
)

// Logger は key/value 形式のフィールドを受け取る構造化ロガー。
// ソルバーの反復ログのように量が多い出力は Enabled で事前に判定できる。
type Logger interface {
	// Debug は反復ごとの進捗など、通常は出力しない診断情報を記録する。
	//
	//   logger.Debug("dual coordinate descent pass",
	//       log.IterationKey, 42,
	//       log.ActiveSizeKey, 100,
	//   )
	Debug(msg string, fields ...any)

	// Info records one line per training or search step.
	Info(msg string, fields ...any)

	// Warn records events that change the result but are not errors, such as
	// an iteration cap being reached.
	Warn(msg string, fields ...any)

	// Error records a failure. An error passed as the first field is attached
	// together with its stack trace:
	//
	//   logger.Error("training failed", err, log.OperationKey, log.OperationFit)
	Error(msg string, fields ...any)

	// With returns a logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether a record at level would be written.
	Enabled(ctx context.Context, level Level) bool
}

// Level uses the numeric values of slog.Level.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

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

// LoggerProvider creates the loggers returned by GetLogger and
// GetLoggerWithName. SetProvider swaps it, e.g. for a TestLoggerProvider.
type LoggerProvider interface {
	GetLogger() Logger
	// GetLoggerWithName tags the logger with ComponentKey.
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
