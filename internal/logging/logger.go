// Package logging provides structured JSON logging with component and
// trace-ID support for the insights engine.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Logger is the structured logging interface used across the engine
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})

	DebugContext(ctx context.Context, msg string, fields ...interface{})
	InfoContext(ctx context.Context, msg string, fields ...interface{})
	WarnContext(ctx context.Context, msg string, fields ...interface{})
	ErrorContext(ctx context.Context, msg string, fields ...interface{})

	WithTraceID(traceID string) Logger
	WithComponent(component string) Logger
}

// LogLevel represents logging levels
type LogLevel int

// Log levels in increasing severity
const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// ParseLevel maps a config string to a level, defaulting to INFO
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// ContextKey represents keys used in context for trace IDs
type ContextKey string

// TraceIDKey carries the request trace ID through contexts
const TraceIDKey ContextKey = "trace_id"

// WithTraceContext returns a context carrying a fresh trace ID
func WithTraceContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, uuid.New().String())
}

// logEntry is the wire form of one structured log line
type logEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	TraceID   string                 `json:"trace_id,omitempty"`
	Component string                 `json:"component,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// StructuredLogger implements Logger with JSON or plain-text output
type StructuredLogger struct {
	level     LogLevel
	traceID   string
	component string
	useJSON   bool
}

// NewLogger creates a structured logger at the given level. Output is
// JSON unless LOG_JSON=false.
func NewLogger(level LogLevel) Logger {
	return &StructuredLogger{
		level:   level,
		useJSON: os.Getenv("LOG_JSON") != "false",
	}
}

// WithTraceID returns a copy of the logger bound to a trace ID
func (l *StructuredLogger) WithTraceID(traceID string) Logger {
	c := *l
	c.traceID = traceID
	return &c
}

// WithComponent returns a copy of the logger bound to a component name
func (l *StructuredLogger) WithComponent(component string) Logger {
	c := *l
	c.component = component
	return &c
}

// Debug logs a debug message
func (l *StructuredLogger) Debug(msg string, fields ...interface{}) {
	l.log(DEBUG, msg, "", fields...)
}

// Info logs an info message
func (l *StructuredLogger) Info(msg string, fields ...interface{}) {
	l.log(INFO, msg, "", fields...)
}

// Warn logs a warning message
func (l *StructuredLogger) Warn(msg string, fields ...interface{}) {
	l.log(WARN, msg, "", fields...)
}

// Error logs an error message
func (l *StructuredLogger) Error(msg string, fields ...interface{}) {
	l.log(ERROR, msg, "", fields...)
}

// DebugContext logs a debug message with the context's trace ID
func (l *StructuredLogger) DebugContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(DEBUG, msg, traceIDFrom(ctx), fields...)
}

// InfoContext logs an info message with the context's trace ID
func (l *StructuredLogger) InfoContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(INFO, msg, traceIDFrom(ctx), fields...)
}

// WarnContext logs a warning message with the context's trace ID
func (l *StructuredLogger) WarnContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(WARN, msg, traceIDFrom(ctx), fields...)
}

// ErrorContext logs an error message with the context's trace ID
func (l *StructuredLogger) ErrorContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ERROR, msg, traceIDFrom(ctx), fields...)
}

func traceIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(TraceIDKey).(string); ok {
		return v
	}
	return ""
}

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

func (l *StructuredLogger) log(level LogLevel, msg, contextTraceID string, fields ...interface{}) {
	if level < l.level {
		return
	}

	traceID := l.traceID
	if contextTraceID != "" {
		traceID = contextTraceID
	}

	fieldMap := make(map[string]interface{})
	for i := 0; i+1 < len(fields); i += 2 {
		fieldMap[fmt.Sprintf("%v", fields[i])] = fields[i+1]
	}

	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     levelNames[level],
		Message:   msg,
		TraceID:   traceID,
		Component: l.component,
		Fields:    fieldMap,
	}

	if l.useJSON {
		data, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to marshal log entry: %v\n", err)
			return
		}
		fmt.Println(string(data))
		return
	}

	parts := []string{entry.Timestamp, "[" + entry.Level + "]"}
	if entry.Component != "" {
		parts = append(parts, "component:"+entry.Component)
	}
	if entry.TraceID != "" && len(entry.TraceID) >= 8 {
		parts = append(parts, "trace:"+entry.TraceID[:8])
	}
	parts = append(parts, entry.Message)

	keys := make([]string, 0, len(fieldMap))
	for k := range fieldMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fieldMap[k]))
	}
	fmt.Println(strings.Join(parts, " "))
}
