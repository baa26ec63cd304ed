package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// lockedBuffer serializes writes from concurrent workers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	raw := strings.TrimSpace(b.buf.String())
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}

func (b *lockedBuffer) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// TestLogger はテスト用のロガー。本番と同じ zerolog エンコーダで JSON 行を
// メモリに書き出し、ソルバーの診断メッセージを検証できるようにする。
// With で派生したロガーも同じバッファに書き込む。
type TestLogger struct {
	*ZerologLogger
	sink *lockedBuffer
}

// NewTestLogger creates a TestLogger that keeps records at or above level.
// The returned buffer holds the raw JSON lines.
//
//	logger, _ := log.NewTestLogger(log.LevelDebug)
//	logger.Warn("reaching max number of iterations")
//	if !logger.ContainsMessage("reaching max number of iterations") {
//	    t.Error("expected iteration cap warning")
//	}
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	sink := &lockedBuffer{buf: buf}
	return &TestLogger{ZerologLogger: NewZerologLogger(sink, level), sink: sink}, buf
}

// GetLogEntries decodes every captured line.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	lines := t.sink.lines()
	entries := make([]map[string]interface{}, 0, len(lines))
	for i, line := range lines {
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, errors.Wrapf(err, "log line %d", i+1)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any record has exactly this message.
func (t *TestLogger) ContainsMessage(message string) bool {
	return t.count(func(e map[string]interface{}) bool { return e["message"] == message }) > 0
}

// ContainsField reports whether any record carries key with value. JSON
// numbers decode as float64.
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	return t.count(func(e map[string]interface{}) bool {
		v, ok := e[key]
		return ok && v == value
	}) > 0
}

// CountLevel returns the number of records at level.
func (t *TestLogger) CountLevel(level Level) int {
	name := toZerologLevel(level).String()
	return t.count(func(e map[string]interface{}) bool { return e["level"] == name })
}

func (t *TestLogger) count(match func(map[string]interface{}) bool) int {
	entries, err := t.GetLogEntries()
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if match(e) {
			n++
		}
	}
	return n
}

// Clear drops everything captured so far.
func (t *TestLogger) Clear() {
	t.sink.reset()
}

// TestLoggerProvider routes the global loggers into one TestLogger.
type TestLoggerProvider struct {
	mu     sync.RWMutex
	logger *TestLogger
}

// NewTestLoggerProvider creates a provider for SetProvider.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buf := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger}, buf
}

// GetLogger implements LoggerProvider.
func (p *TestLoggerProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.logger.ZerologLogger
}

// GetLoggerWithName implements LoggerProvider.
func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

// SetLevel implements LoggerProvider. Records already captured are kept.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger.ZerologLogger = NewZerologLogger(p.logger.sink, level)
}

// Logger returns the capturing logger for assertions.
func (p *TestLoggerProvider) Logger() *TestLogger {
	return p.logger
}
