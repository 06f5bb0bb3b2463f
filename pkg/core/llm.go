package core

import (
	"context"
)

// TokenInfo tracks token usage for a single generation.
type TokenInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLMResponse is the result of a text completion.
type LLMResponse struct {
	Content  string
	Usage    *TokenInfo
	Metadata map[string]interface{}
}

// StreamChunk is a single increment of a streaming response.
type StreamChunk struct {
	Content string     // The text content of this chunk
	Done    bool       // Indicates if this is the final chunk
	Error   error      // Any error that occurred during streaming
	Usage   *TokenInfo // Optional token usage information (may be nil)
}

// StreamResponse encapsulates a streaming response.
type StreamResponse struct {
	ChunkChannel <-chan StreamChunk // Channel receiving response chunks
	Cancel       func()             // Function to cancel the stream
}

type Capability string

const (
	CapabilityCompletion Capability = "completion"
	CapabilityJSON       Capability = "json"
	CapabilityStreaming  Capability = "streaming"
)

// LLM is the completion collaborator contract. The context carries
// cancellation and timeout; callers needing an awaitable convention run
// Generate in a goroutine and receive on a channel.
type LLM interface {
	// Generate produces a text completion for the given prompt.
	Generate(ctx context.Context, prompt string, options ...GenerateOption) (*LLMResponse, error)

	// GenerateWithJSON produces a completion and parses it as a JSON object.
	GenerateWithJSON(ctx context.Context, prompt string, options ...GenerateOption) (map[string]interface{}, error)

	// StreamGenerate produces a completion as incremental chunks. Optional
	// capability; providers without it return an error.
	StreamGenerate(ctx context.Context, prompt string, options ...GenerateOption) (*StreamResponse, error)

	ProviderName() string
	ModelID() string
	Capabilities() []Capability
}

// GenerateOption represents an option for text generation.
type GenerateOption func(*GenerateOptions)

// GenerateOptions holds configuration for text generation.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
	Stop        []string

	// Extra carries provider-specific parameters that the core does not
	// interpret. Providers read the keys they recognize and ignore the rest.
	Extra map[string]interface{}
}

// NewGenerateOptions creates GenerateOptions with default values.
func NewGenerateOptions() *GenerateOptions {
	return &GenerateOptions{
		MaxTokens:   8192,
		Temperature: 0.5,
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = t
	}
}

// WithTopP sets the nucleus sampling probability.
func WithTopP(p float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.TopP = p
	}
}

// WithStopSequences sets the stop sequences.
func WithStopSequences(sequences ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Stop = sequences
	}
}

// WithExtraParam passes a provider-specific parameter through unchanged.
func WithExtraParam(key string, value interface{}) GenerateOption {
	return func(o *GenerateOptions) {
		if o.Extra == nil {
			o.Extra = make(map[string]interface{})
		}
		o.Extra[key] = value
	}
}

// BaseLLM provides a base implementation of provider metadata.
type BaseLLM struct {
	provider     string
	modelID      string
	capabilities []Capability
}

// NewBaseLLM creates a new BaseLLM.
func NewBaseLLM(provider, modelID string, capabilities []Capability) *BaseLLM {
	return &BaseLLM{
		provider:     provider,
		modelID:      modelID,
		capabilities: capabilities,
	}
}

// ProviderName implements LLM interface.
func (b *BaseLLM) ProviderName() string {
	return b.provider
}

// ModelID implements LLM interface.
func (b *BaseLLM) ModelID() string {
	return b.modelID
}

// Capabilities implements LLM interface.
func (b *BaseLLM) Capabilities() []Capability {
	return b.capabilities
}

// HasCapability reports whether the model supports the given capability.
func (b *BaseLLM) HasCapability(cap Capability) bool {
	for _, c := range b.capabilities {
		if c == cap {
			return true
		}
	}
	return false
}
