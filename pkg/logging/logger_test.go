package logging

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureOutput struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (c *captureOutput) Write(e LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	return nil
}

func (c *captureOutput) Sync() error  { return nil }
func (c *captureOutput) Close() error { return nil }

func (c *captureOutput) all() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func TestSeverityFiltering(t *testing.T) {
	capture := &captureOutput{}
	logger := NewLogger(Config{Severity: WARN, Outputs: []Output{capture}})

	ctx := context.Background()
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	entries := capture.all()
	require.Len(t, entries, 2)
	assert.Equal(t, WARN, entries[0].Severity)
	assert.Equal(t, ERROR, entries[1].Severity)
}

func TestDefaultFields(t *testing.T) {
	capture := &captureOutput{}
	logger := NewLogger(Config{
		Severity:      INFO,
		Outputs:       []Output{capture},
		DefaultFields: map[string]interface{}{"component": "adapter"},
	})

	logger.Info(context.Background(), "processing sample %d", 3)

	entries := capture.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "processing sample 3", entries[0].Message)
	assert.Equal(t, "adapter", entries[0].Fields["component"])
}

func TestContextEnrichment(t *testing.T) {
	capture := &captureOutput{}
	logger := NewLogger(Config{Severity: DEBUG, Outputs: []Output{capture}})

	ctx := WithModelID(context.Background(), "claude-3-haiku")
	ctx = WithTokenInfo(ctx, &TokenInfo{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	logger.Debug(ctx, "generation done")

	entries := capture.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "claude-3-haiku", entries[0].ModelID)
	require.NotNil(t, entries[0].TokenInfo)
	assert.Equal(t, 15, entries[0].TokenInfo.TotalTokens)
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input    string
		expected Severity
	}{
		{"DEBUG", DEBUG},
		{"INFO", INFO},
		{"WARN", WARN},
		{"ERROR", ERROR},
		{"FATAL", FATAL},
		{"bogus", INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSeverity(tt.input))
		})
	}
}

func TestGetLoggerSingleton(t *testing.T) {
	l1 := GetLogger()
	l2 := GetLogger()
	assert.Same(t, l1, l2)

	custom := NewLogger(Config{Severity: ERROR})
	SetLogger(custom)
	defer SetLogger(l1)

	assert.Same(t, custom, GetLogger())
}
