// Package log provides structured logging for activity monitor components.
package log

import (
	"fmt"
	"time"
)

// Level represents the severity level of a log message.
type Level int

// Log levels
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch s {
	case "debug", "DEBUG":
		return DebugLevel, nil
	case "info", "INFO", "":
		return InfoLevel, nil
	case "warn", "WARN", "warning":
		return WarnLevel, nil
	case "error", "ERROR":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("log: unknown level %q", s)
}

// Field is one structured key/value attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// Str creates a string field.
func Str(key, value string) Field { return Field{Key: key, Value: value} }

// Int creates an int field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Int64 creates an int64 field.
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Err creates an "error" field.
func Err(err error) Field { return Field{Key: "error", Value: err} }

// Any creates a field holding an arbitrary value.
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Entry represents a single log entry.
type Entry struct {
	Level     Level
	Message   string
	Fields    []Field
	Timestamp time.Time
	Component string
}

// Logger defines the logging interface consumed by components.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a logger that attaches fields to every entry.
	With(fields ...Field) Logger

	// WithComponent tags entries with a component name.
	WithComponent(component string) Logger

	// SetLevel sets the minimum log level.
	SetLevel(level Level)
}

// LoggerOption configures a logger.
type LoggerOption func(*BaseLogger)

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(l *BaseLogger) { l.level = level }
}

// WithFormatter sets the log formatter.
func WithFormatter(f Formatter) LoggerOption {
	return func(l *BaseLogger) { l.formatter = f }
}

// WithOutput adds an output to the logger.
func WithOutput(o Output) LoggerOption {
	return func(l *BaseLogger) { l.outputs = append(l.outputs, o) }
}

// BaseLogger implements the Logger interface.
type BaseLogger struct {
	level     Level
	fields    []Field
	component string
	formatter Formatter
	outputs   []Output
}

// NewLogger creates a new logger with the given options.
func NewLogger(options ...LoggerOption) Logger {
	logger := &BaseLogger{
		level:     InfoLevel,
		formatter: &TextFormatter{},
	}
	for _, option := range options {
		option(logger)
	}
	if len(logger.outputs) == 0 {
		logger.outputs = append(logger.outputs, NewConsoleOutput())
	}
	return logger
}

// NewNopLogger returns a logger that discards everything. Useful in tests.
func NewNopLogger() Logger {
	return &BaseLogger{level: ErrorLevel + 1, formatter: &TextFormatter{}}
}

func (l *BaseLogger) log(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}
	entry := &Entry{
		Level:     level,
		Message:   msg,
		Fields:    append(append([]Field{}, l.fields...), fields...),
		Timestamp: time.Now(),
		Component: l.component,
	}
	formatted, err := l.formatter.Format(entry)
	if err != nil {
		return
	}
	for _, out := range l.outputs {
		_ = out.Write(entry, formatted)
	}
}

func (l *BaseLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *BaseLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *BaseLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *BaseLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

// With returns a copy of the logger with extra base fields.
func (l *BaseLogger) With(fields ...Field) Logger {
	nl := *l
	nl.fields = append(append([]Field{}, l.fields...), fields...)
	return &nl
}

// WithComponent tags entries with a component name.
func (l *BaseLogger) WithComponent(component string) Logger {
	nl := *l
	nl.component = component
	return &nl
}

// SetLevel sets the minimum log level.
func (l *BaseLogger) SetLevel(level Level) { l.level = level }
