package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ConsoleOutput formats logs for human readability.
type ConsoleOutput struct {
	mu     sync.Mutex
	writer io.Writer
	color  bool
}

type ConsoleOutputOption func(*ConsoleOutput)

func WithColor(enabled bool) ConsoleOutputOption {
	return func(c *ConsoleOutput) {
		c.color = enabled
	}
}

func NewConsoleOutput(useStderr bool, opts ...ConsoleOutputOption) *ConsoleOutput {
	writer := os.Stdout
	if useStderr {
		writer = os.Stderr
	}

	c := &ConsoleOutput{
		writer: writer,
		color:  true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func severityColor(s Severity) string {
	switch s {
	case DEBUG:
		return "\033[37m" // Gray
	case INFO:
		return "\033[32m" // Green
	case WARN:
		return "\033[33m" // Yellow
	case ERROR:
		return "\033[31m" // Red
	case FATAL:
		return "\033[35m" // Magenta
	default:
		return ""
	}
}

func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}

	var result string
	for k, v := range fields {
		str := fmt.Sprintf("%v", v)
		// Truncate long values (prompts, completions) for console display.
		if len(str) > 100 {
			str = str[:97] + "..."
		}
		result += fmt.Sprintf("%s=%q ", k, str)
	}
	return result
}

func (c *ConsoleOutput) Write(e LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := time.Unix(0, e.Time).Format("2006-01-02 15:04:05.000")

	var line string
	if c.color {
		line = fmt.Sprintf("%s %s%-5s\033[0m %s:%d %s %s\n",
			ts, severityColor(e.Severity), e.Severity, e.File, e.Line, e.Message, formatFields(e.Fields))
	} else {
		line = fmt.Sprintf("%s %-5s %s:%d %s %s\n",
			ts, e.Severity, e.File, e.Line, e.Message, formatFields(e.Fields))
	}

	_, err := io.WriteString(c.writer, line)
	return err
}

func (c *ConsoleOutput) Sync() error { return nil }

func (c *ConsoleOutput) Close() error { return nil }

// FileOutput appends log entries to a file.
type FileOutput struct {
	mu   sync.Mutex
	file *os.File
}

func NewFileOutput(path string) (*FileOutput, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileOutput{file: f}, nil
}

func (f *FileOutput) Write(e LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ts := time.Unix(0, e.Time).Format(time.RFC3339Nano)
	_, err := fmt.Fprintf(f.file, "%s %-5s %s:%d %s %s\n",
		ts, e.Severity, e.File, e.Line, e.Message, formatFields(e.Fields))
	return err
}

func (f *FileOutput) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Sync()
}

func (f *FileOutput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}
