// Package testutil provides shared test doubles.
package testutil

import (
	"context"
	"sync"

	"github.com/XiaoConstantine/ace-go/pkg/core"
)

// MockLLM is a function-backed core.LLM for tests. Only GenerateFunc needs
// to be set for most tests; the other methods fall back to sane defaults.
type MockLLM struct {
	GenerateFunc func(ctx context.Context, prompt string) (*core.LLMResponse, error)

	mu      sync.Mutex
	prompts []string
}

var _ core.LLM = (*MockLLM)(nil)

func (m *MockLLM) Generate(ctx context.Context, prompt string, opts ...core.GenerateOption) (*core.LLMResponse, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return &core.LLMResponse{Content: "{}"}, nil
}

func (m *MockLLM) GenerateWithJSON(ctx context.Context, prompt string, opts ...core.GenerateOption) (map[string]interface{}, error) {
	resp, err := m.Generate(ctx, prompt, opts...)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"content": resp.Content}, nil
}

func (m *MockLLM) StreamGenerate(ctx context.Context, prompt string, opts ...core.GenerateOption) (*core.StreamResponse, error) {
	resp, err := m.Generate(ctx, prompt, opts...)
	if err != nil {
		return nil, err
	}
	ch := make(chan core.StreamChunk, 2)
	ch <- core.StreamChunk{Content: resp.Content}
	ch <- core.StreamChunk{Done: true}
	close(ch)
	return &core.StreamResponse{ChunkChannel: ch, Cancel: func() {}}, nil
}

func (m *MockLLM) ProviderName() string { return "mock" }

func (m *MockLLM) ModelID() string { return "mock-model" }

func (m *MockLLM) Capabilities() []core.Capability {
	return []core.Capability{core.CapabilityCompletion, core.CapabilityJSON}
}

// Prompts returns every prompt seen so far.
func (m *MockLLM) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// CallCount reports how many Generate calls were made.
func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// ScriptedLLM returns a MockLLM that cycles through the given responses.
func ScriptedLLM(responses ...string) *MockLLM {
	if len(responses) == 0 {
		responses = []string{"{}"}
	}
	var calls int
	m := &MockLLM{}
	m.GenerateFunc = func(ctx context.Context, prompt string) (*core.LLMResponse, error) {
		resp := responses[calls%len(responses)]
		calls++
		return &core.LLMResponse{Content: resp}, nil
	}
	return m
}
