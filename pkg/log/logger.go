package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

func init() {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		return extractStacktrace(err)
	}
	errors.SetZerologWarnFunc(logWarning)
}

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger creates a JSON-lines logger writing to w.
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{logger: zl}
}

// Debug implements Logger.Debug.
func (z *ZerologLogger) Debug(msg string, fields ...any) {
	emit(z.logger.Debug(), msg, fields)
}

// Info implements Logger.Info.
func (z *ZerologLogger) Info(msg string, fields ...any) {
	emit(z.logger.Info(), msg, fields)
}

// Warn implements Logger.Warn.
func (z *ZerologLogger) Warn(msg string, fields ...any) {
	emit(z.logger.Warn(), msg, fields)
}

// Error implements Logger.Error. A leading error value is attached with its
// stack trace.
func (z *ZerologLogger) Error(msg string, fields ...any) {
	ev := z.logger.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Stack().Err(err)
			fields = fields[1:]
		}
	}
	emit(ev, msg, fields)
}

// With implements Logger.With.
func (z *ZerologLogger) With(fields ...any) Logger {
	return &ZerologLogger{logger: z.logger.With().Fields(fields).Logger()}
}

// Enabled implements Logger.Enabled.
func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	zl := toZerologLevel(level)
	return zl >= z.logger.GetLevel() && zl >= zerolog.GlobalLevel()
}

func emit(ev *zerolog.Event, msg string, fields []any) {
	if ev == nil {
		return
	}
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(msg)
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// zerologProvider is the process-wide LoggerProvider.
type zerologProvider struct {
	mu    sync.RWMutex
	out   io.Writer
	level Level
	base  *ZerologLogger
}

func newZerologProvider(out io.Writer, level Level) *zerologProvider {
	return &zerologProvider{out: out, level: level, base: NewZerologLogger(out, level)}
}

func (p *zerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.base
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

func (p *zerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
	p.base = NewZerologLogger(p.out, level)
}

func (p *zerologProvider) setOutput(out io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = out
	p.base = NewZerologLogger(out, p.level)
}

var (
	providerMu      sync.RWMutex
	defaultProvider = newZerologProvider(os.Stderr, LevelWarn)
	provider        LoggerProvider = defaultProvider
)

// SetProvider replaces the global provider. Passing nil restores the
// zerolog-backed default.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	if p == nil {
		provider = defaultProvider
		return
	}
	provider = p
}

func currentProvider() LoggerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider
}

// GetLogger returns the global logger. Loggers are cheap; fetch them at the
// start of an operation rather than caching them in package variables so
// level changes take effect.
func GetLogger() Logger {
	return currentProvider().GetLogger()
}

// GetLoggerWithName returns the global logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return currentProvider().GetLoggerWithName(name)
}

// SetLevel sets the minimum level of the global provider.
func SetLevel(level Level) {
	currentProvider().SetLevel(level)
}

// SetOutput redirects the default zerolog provider.
func SetOutput(w io.Writer) {
	defaultProvider.setOutput(w)
}

// SetupLogger configures the default provider from a level name
// ("debug", "info", "warn", "error").
func SetupLogger(loglevel string) error {
	level, err := ToLogLevel(loglevel)
	if err != nil {
		return err
	}
	SetProvider(nil)
	SetLevel(level)
	return nil
}

// ToLogLevel parses a level name.
func ToLogLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValidationError("log_level", "must be one of debug, info, warn, error", level)
	}
}

// logWarning routes errors.Warn through the global logger.
func logWarning(w error) {
	logger := GetLoggerWithName("warnings")
	if zl, ok := logger.(*ZerologLogger); ok {
		if obj, ok := w.(zerolog.LogObjectMarshaler); ok {
			zl.logger.Warn().EmbedObject(obj).Msg(w.Error())
			return
		}
	}
	logger.Warn(w.Error(), ErrorTypeKey, fmt.Sprintf("%T", w))
}
