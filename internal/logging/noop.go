package logging

import "context"

// NoopLogger discards all log output; used in tests
type NoopLogger struct{}

// NewNoopLogger creates a logger that discards everything
func NewNoopLogger() Logger { return &NoopLogger{} }

// Debug does nothing
func (n *NoopLogger) Debug(string, ...interface{}) {}

// Info does nothing
func (n *NoopLogger) Info(string, ...interface{}) {}

// Warn does nothing
func (n *NoopLogger) Warn(string, ...interface{}) {}

// Error does nothing
func (n *NoopLogger) Error(string, ...interface{}) {}

// DebugContext does nothing
func (n *NoopLogger) DebugContext(context.Context, string, ...interface{}) {}

// InfoContext does nothing
func (n *NoopLogger) InfoContext(context.Context, string, ...interface{}) {}

// WarnContext does nothing
func (n *NoopLogger) WarnContext(context.Context, string, ...interface{}) {}

// ErrorContext does nothing
func (n *NoopLogger) ErrorContext(context.Context, string, ...interface{}) {}

// WithTraceID returns the logger unchanged
func (n *NoopLogger) WithTraceID(string) Logger { return n }

// WithComponent returns the logger unchanged
func (n *NoopLogger) WithComponent(string) Logger { return n }
