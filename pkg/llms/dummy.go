package llms

import (
	"context"
	"sync"

	"github.com/XiaoConstantine/ace-go/pkg/core"
	errs "github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/utils"
)

// DummyLLM returns scripted responses in order, cycling when exhausted.
// It is intended for examples and offline experimentation without a real
// model behind it.
type DummyLLM struct {
	*core.BaseLLM

	mu        sync.Mutex
	responses []string
	index     int
	prompts   []string
}

// NewDummyLLM creates a DummyLLM with the given scripted responses.
// With no responses it replies with an empty JSON object.
func NewDummyLLM(responses ...string) *DummyLLM {
	if len(responses) == 0 {
		responses = []string{"{}"}
	}
	return &DummyLLM{
		BaseLLM: core.NewBaseLLM("dummy", "dummy", []core.Capability{
			core.CapabilityCompletion,
			core.CapabilityJSON,
		}),
		responses: responses,
	}
}

// Generate implements the core.LLM interface.
func (d *DummyLLM) Generate(ctx context.Context, prompt string, options ...core.GenerateOption) (*core.LLMResponse, error) {
	if err := errs.CheckContext(ctx, "dummy generate"); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.prompts = append(d.prompts, prompt)
	response := d.responses[d.index%len(d.responses)]
	d.index++

	return &core.LLMResponse{
		Content: response,
		Usage: &core.TokenInfo{
			PromptTokens:     len(prompt) / 4,
			CompletionTokens: len(response) / 4,
			TotalTokens:      (len(prompt) + len(response)) / 4,
		},
	}, nil
}

// GenerateWithJSON implements the core.LLM interface.
func (d *DummyLLM) GenerateWithJSON(ctx context.Context, prompt string, options ...core.GenerateOption) (map[string]interface{}, error) {
	response, err := d.Generate(ctx, prompt, options...)
	if err != nil {
		return nil, err
	}
	return utils.ParseJSONResponse(response.Content)
}

// StreamGenerate implements the core.LLM interface. The scripted response is
// delivered as a single chunk.
func (d *DummyLLM) StreamGenerate(ctx context.Context, prompt string, options ...core.GenerateOption) (*core.StreamResponse, error) {
	response, err := d.Generate(ctx, prompt, options...)
	if err != nil {
		return nil, err
	}

	chunks := make(chan core.StreamChunk, 2)
	chunks <- core.StreamChunk{Content: response.Content, Usage: response.Usage}
	chunks <- core.StreamChunk{Done: true}
	close(chunks)

	return &core.StreamResponse{
		ChunkChannel: chunks,
		Cancel:       func() {},
	}, nil
}

// Prompts returns the prompts seen so far, in call order.
func (d *DummyLLM) Prompts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, len(d.prompts))
	copy(out, d.prompts)
	return out
}

// CallCount returns the number of Generate calls so far.
func (d *DummyLLM) CallCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index
}
