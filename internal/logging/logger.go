package logging

import "go.uber.org/zap"

// Logger provides structured logging for the worker. The call shape
// (message plus alternating key-value pairs) matches zap's SugaredLogger
// "w"-suffixed methods directly.
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a new logger with a prefix attached as a static field,
// so every line from a given component carries it without repeating it at
// each call site.
func NewLogger(prefix string) *Logger {
	base, err := zap.NewProduction()
	if err != nil {
		base = zap.NewNop()
	}
	return &Logger{sugar: base.Sugar().With("component", prefix)}
}

// Info logs an informational message with key-value pairs.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Error logs an error message with key-value pairs.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// Sync flushes any buffered log entries. Call before process exit.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
