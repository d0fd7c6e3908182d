package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Formatter defines the interface for formatting log entries.
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// Output defines the interface for log outputs.
type Output interface {
	Write(entry *Entry, formatted []byte) error
}

// TextFormatter renders entries as a single human-readable line.
type TextFormatter struct{}

// Format implements Formatter.
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(entry.Timestamp.Format(time.RFC3339))
	buf.WriteByte(' ')
	buf.WriteString(entry.Level.String())
	if entry.Component != "" {
		buf.WriteString(" [")
		buf.WriteString(entry.Component)
		buf.WriteByte(']')
	}
	buf.WriteByte(' ')
	buf.WriteString(entry.Message)
	for _, field := range entry.Fields {
		fmt.Fprintf(&buf, " %s=%v", field.Key, field.Value)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// JSONFormatter renders entries as one JSON object per line.
type JSONFormatter struct{}

// Format implements Formatter.
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	obj := map[string]interface{}{
		"ts":    entry.Timestamp.Format(time.RFC3339Nano),
		"level": entry.Level.String(),
		"msg":   entry.Message,
	}
	if entry.Component != "" {
		obj["component"] = entry.Component
	}
	for _, field := range entry.Fields {
		if err, ok := field.Value.(error); ok {
			obj[field.Key] = err.Error()
			continue
		}
		obj[field.Key] = field.Value
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// ConsoleOutput writes formatted entries to stderr.
type ConsoleOutput struct {
	mu sync.Mutex
}

// NewConsoleOutput creates a stderr output.
func NewConsoleOutput() *ConsoleOutput { return &ConsoleOutput{} }

// Write implements Output.
func (o *ConsoleOutput) Write(_ *Entry, formatted []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := os.Stderr.Write(formatted)
	return err
}
