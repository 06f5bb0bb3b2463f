package ace

import (
	"context"
	"strings"

	"github.com/XiaoConstantine/ace-go/pkg/core"
	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/logging"
	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

// DefaultMaxRefinementRounds is how many reflection passes run before the
// reflector settles for its last parseable result.
const DefaultMaxRefinementRounds = 1

// ReflectorConfig tunes the diagnosis role.
type ReflectorConfig struct {
	PromptTemplate string
	MaxRetries     int
	// MaxRefinementRounds bounds how many times the reflector re-runs its
	// analysis looking for an actionable result.
	MaxRefinementRounds int
	// Actionable decides whether a round's output is good enough to stop
	// early. The default accepts any output carrying bullet tags or a key
	// insight.
	Actionable      func(*ReflectorOutput) bool
	GenerateOptions []core.GenerateOption
}

// Reflector diagnoses generator trajectories: what went wrong, why, and
// which bullets helped or hurt.
type Reflector struct {
	llm    core.LLM
	config ReflectorConfig
}

// ReflectRequest carries one trajectory into the reflector.
type ReflectRequest struct {
	Question  string
	Generator *GeneratorOutput
	Playbook  *playbook.Playbook
	// GroundTruth is nil when the environment supplies none.
	GroundTruth *string
	Feedback    string
}

// BulletTag is a reflector verdict on one cited bullet.
type BulletTag struct {
	ID  string
	Tag string
}

// ReflectorOutput is the parsed diagnosis.
type ReflectorOutput struct {
	Reasoning           string
	ErrorIdentification string
	RootCauseAnalysis   string
	CorrectApproach     string
	KeyInsight          string
	BulletTags          []BulletTag
	Raw                 map[string]interface{}
}

// NewReflector builds a reflector around the given LLM.
func NewReflector(llm core.LLM, config ReflectorConfig) *Reflector {
	if config.PromptTemplate == "" {
		config.PromptTemplate = ReflectorPromptTemplate
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.MaxRefinementRounds <= 0 {
		config.MaxRefinementRounds = DefaultMaxRefinementRounds
	}
	if config.Actionable == nil {
		config.Actionable = defaultActionable
	}
	return &Reflector{llm: llm, config: config}
}

func defaultActionable(out *ReflectorOutput) bool {
	return len(out.BulletTags) > 0 || out.KeyInsight != ""
}

// Reflect diagnoses one trajectory. It runs up to MaxRefinementRounds passes
// and returns the first actionable output, or the last parseable one when no
// round is actionable. It fails with a RoleFailed error only when every
// round fails to parse.
func (r *Reflector) Reflect(ctx context.Context, req ReflectRequest) (*ReflectorOutput, error) {
	if req.Generator == nil {
		return nil, errors.New(errors.InvalidInput, "reflect request requires generator output")
	}

	groundTruth := "(none)"
	if req.GroundTruth != nil {
		groundTruth = *req.GroundTruth
	}
	prompt := renderTemplate(r.config.PromptTemplate, map[string]string{
		"question":         req.Question,
		"reasoning":        formatOptional(req.Generator.Reasoning),
		"prediction":       formatOptional(req.Generator.FinalAnswer),
		"ground_truth":     groundTruth,
		"feedback":         formatOptional(req.Feedback),
		"playbook_excerpt": playbookExcerpt(req.Playbook, req.Generator.BulletIDs),
	})

	logger := logging.GetLogger()
	var result *ReflectorOutput
	var lastErr error
	for round := 0; round < r.config.MaxRefinementRounds; round++ {
		opts := append([]core.GenerateOption{}, r.config.GenerateOptions...)
		opts = append(opts, core.WithExtraParam("refinement_round", round))

		out, err := generateStructured(ctx, r.llm, prompt, r.config.MaxRetries, opts, r.extract)
		if err != nil {
			if errors.IsCode(err, errors.Canceled) || errors.IsCode(err, errors.Timeout) {
				return nil, err
			}
			lastErr = err
			logger.Debug(ctx, "reflection round %d failed: %v", round+1, err)
			continue
		}
		result = out
		if r.config.Actionable(out) {
			return out, nil
		}
	}
	if result == nil {
		return nil, errors.WithFields(
			errors.Wrap(lastErr, errors.RoleFailed, "reflector failed"),
			errors.Fields{"role": "reflector"})
	}
	return result, nil
}

func (r *Reflector) extract(data map[string]interface{}) (*ReflectorOutput, error) {
	out := &ReflectorOutput{
		Reasoning:           stringField(data, "reasoning"),
		ErrorIdentification: stringField(data, "error_identification"),
		RootCauseAnalysis:   stringField(data, "root_cause_analysis"),
		CorrectApproach:     stringField(data, "correct_approach"),
		KeyInsight:          stringField(data, "key_insight"),
		Raw:                 data,
	}
	if rawTags, ok := data["bullet_tags"].([]interface{}); ok {
		for _, rawTag := range rawTags {
			entry, ok := rawTag.(map[string]interface{})
			if !ok {
				continue
			}
			id := stringField(entry, "id")
			tag := stringField(entry, "tag")
			if id == "" || tag == "" {
				continue
			}
			out.BulletTags = append(out.BulletTags, BulletTag{ID: id, Tag: tag})
		}
	}
	return out, nil
}

// playbookExcerpt renders the cited bullets in citation order, deduplicated,
// one "[id] content" line each. Unknown ids are skipped.
func playbookExcerpt(pb *playbook.Playbook, bulletIDs []string) string {
	if pb == nil || len(bulletIDs) == 0 {
		return "(no bullets consulted)"
	}
	seen := make(map[string]bool, len(bulletIDs))
	var lines []string
	for _, id := range bulletIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		bullet := pb.GetBullet(id)
		if bullet == nil {
			continue
		}
		lines = append(lines, "["+bullet.ID+"] "+bullet.Content)
	}
	if len(lines) == 0 {
		return "(no bullets consulted)"
	}
	return strings.Join(lines, "\n")
}
