package ace

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/XiaoConstantine/ace-go/pkg/core"
	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

// CuratorConfig tunes the playbook-maintenance role.
type CuratorConfig struct {
	PromptTemplate  string
	MaxRetries      int
	GenerateOptions []core.GenerateOption
}

// Curator turns reflections into delta batches against the playbook. It
// never regenerates the playbook wholesale; it emits incremental operations.
type Curator struct {
	llm    core.LLM
	config CuratorConfig
}

// CurateRequest carries one reflection into the curator.
type CurateRequest struct {
	Reflection *ReflectorOutput
	Playbook   *playbook.Playbook
	// QuestionContext summarizes the sample being trained on.
	QuestionContext string
	// Progress is a human-readable position in the training run.
	Progress string
}

// CuratorOutput is the parsed curation result.
type CuratorOutput struct {
	Delta *playbook.DeltaBatch
	Raw   map[string]interface{}
}

// NewCurator builds a curator around the given LLM.
func NewCurator(llm core.LLM, config CuratorConfig) *Curator {
	if config.PromptTemplate == "" {
		config.PromptTemplate = CuratorPromptTemplate
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	return &Curator{llm: llm, config: config}
}

// Curate produces a delta batch for one reflection. A reply that is valid
// JSON but not a valid delta batch counts against the same retry budget as a
// parse failure.
func (c *Curator) Curate(ctx context.Context, req CurateRequest) (*CuratorOutput, error) {
	if req.Reflection == nil {
		return nil, errors.New(errors.InvalidInput, "curate request requires a reflection")
	}
	if req.Playbook == nil {
		return nil, errors.New(errors.InvalidInput, "curate request requires a playbook")
	}

	stats, err := json.Marshal(req.Playbook.Stats())
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to serialize playbook stats")
	}
	reflection, err := json.Marshal(req.Reflection.Raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to serialize reflection")
	}
	prompt := renderTemplate(c.config.PromptTemplate, map[string]string{
		"progress":         formatOptional(req.Progress),
		"stats":            string(stats),
		"reflection":       string(reflection),
		"playbook":         playbookPrompt(req.Playbook),
		"question_context": formatOptional(req.QuestionContext),
	})

	out, err := generateStructured(ctx, c.llm, prompt, c.config.MaxRetries, c.config.GenerateOptions,
		func(data map[string]interface{}) (*CuratorOutput, error) {
			delta, err := playbook.DeltaBatchFromMap(data)
			if err != nil {
				return nil, fmt.Errorf("invalid delta batch: %w", err)
			}
			return &CuratorOutput{Delta: delta, Raw: data}, nil
		})
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.RoleFailed, "curator failed"),
			errors.Fields{"role": "curator"})
	}
	return out, nil
}
