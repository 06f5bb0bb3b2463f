package ace

import (
	"context"
	"fmt"

	"github.com/XiaoConstantine/ace-go/pkg/core"
	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

// GeneratorConfig tunes the answer-producing role. Zero values fall back to
// the package defaults.
type GeneratorConfig struct {
	// PromptTemplate overrides GeneratorPromptTemplate. It must carry the
	// same placeholders.
	PromptTemplate string
	// MaxRetries bounds structured-output attempts per invocation.
	MaxRetries int
	// GenerateOptions are forwarded verbatim to the underlying LLM.
	GenerateOptions []core.GenerateOption
}

// Generator produces answers to task questions, consulting the playbook and
// citing the bullets it relied on.
type Generator struct {
	llm    core.LLM
	config GeneratorConfig
}

// GenerateRequest carries one task into the generator.
type GenerateRequest struct {
	Question string
	Context  string
	Playbook *playbook.Playbook
	// Reflection is recent diagnostic context, typically the adapter's
	// reflection window. Empty means none.
	Reflection string
}

// GeneratorOutput is the parsed result of a generator invocation. Raw holds
// the full decoded JSON object for callers that need provider extras.
type GeneratorOutput struct {
	Reasoning   string
	FinalAnswer string
	BulletIDs   []string
	Raw         map[string]interface{}
}

// NewGenerator builds a generator around the given LLM.
func NewGenerator(llm core.LLM, config GeneratorConfig) *Generator {
	if config.PromptTemplate == "" {
		config.PromptTemplate = GeneratorPromptTemplate
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	return &Generator{llm: llm, config: config}
}

// Generate answers one question. It fails with a RoleFailed error when the
// model cannot produce valid structured output within the retry budget.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*GeneratorOutput, error) {
	prompt := renderTemplate(g.config.PromptTemplate, map[string]string{
		"playbook":   playbookPrompt(req.Playbook),
		"reflection": formatOptional(req.Reflection),
		"question":   req.Question,
		"context":    formatOptional(req.Context),
	})

	out, err := generateStructured(ctx, g.llm, prompt, g.config.MaxRetries, g.config.GenerateOptions,
		func(data map[string]interface{}) (*GeneratorOutput, error) {
			return &GeneratorOutput{
				Reasoning:   stringField(data, "reasoning"),
				FinalAnswer: stringField(data, "final_answer"),
				BulletIDs:   stringSlice(data["bullet_ids"]),
				Raw:         data,
			}, nil
		})
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.RoleFailed, "generator failed"),
			errors.Fields{"role": "generator"})
	}
	return out, nil
}

// playbookPrompt renders a playbook for prompt injection, tolerating nil.
func playbookPrompt(pb *playbook.Playbook) string {
	if pb == nil {
		return "(empty playbook)"
	}
	if rendered := pb.AsPrompt(); rendered != "" {
		return rendered
	}
	return "(empty playbook)"
}

// stringSlice coerces a decoded JSON array into strings, stringifying
// non-string elements rather than dropping them.
func stringSlice(value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out
}
