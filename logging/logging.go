// Package logging provides the structured leveled logger used across the
// reconstruction core, adapted from the teacher's zap-backed logging
// package and trimmed to what a kernel needs: named loggers with
// Warnw-style diagnostics. Remote log sync/streaming is out of scope here.
package logging

import (
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// Logger is the interface kernels depend on for diagnostic-and-continue
// reporting (spec.md §7). It never panics or exits the process.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Named(name string) Logger
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (l *zapLogger) Debugw(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l *zapLogger) Infow(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l *zapLogger) Warnw(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l *zapLogger) Errorw(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{s: l.s.Named(name)}
}

// NewLogger returns a new production-configured Logger with the given name.
func NewLogger(name string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	z, err := cfg.Build()
	if err != nil {
		// Fall back to a no-op core; logging must never be fatal to a kernel.
		z = zap.NewNop()
	}
	return &zapLogger{s: z.Sugar().Named(name)}
}

// NewTestLogger returns a Logger that writes through tb.Log, matching the
// teacher's testing-logger idiom.
func NewTestLogger(tb testing.TB) Logger {
	return &zapLogger{s: zaptest.NewLogger(tb).Sugar()}
}

var (
	globalMu     sync.RWMutex
	globalLogger = NewLogger("fusion")
)

// Global returns the package-level default logger.
func Global() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// ReplaceGlobal replaces the package-level default logger.
func ReplaceGlobal(l Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}
