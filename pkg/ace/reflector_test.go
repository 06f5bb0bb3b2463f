package ace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/ace-go/internal/testutil"
	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

const actionableReflection = `{
	"reasoning": "the model skipped a step",
	"error_identification": "dropped the carry",
	"root_cause_analysis": "rushed arithmetic",
	"correct_approach": "compute column by column",
	"key_insight": "always verify arithmetic",
	"bullet_tags": [{"id": "math-00001", "tag": "harmful"}]
}`

func TestReflectorParsesDiagnosis(t *testing.T) {
	llm := testutil.ScriptedLLM(actionableReflection)
	pb := playbook.New()
	pb.AddBullet("math", "Show your work", nil)

	r := NewReflector(llm, ReflectorConfig{})
	out, err := r.Reflect(context.Background(), ReflectRequest{
		Question: "What is 17+25?",
		Generator: &GeneratorOutput{
			Reasoning:   "17+25 = 32",
			FinalAnswer: "32",
			BulletIDs:   []string{"math-00001"},
		},
		Playbook: pb,
		Feedback: "wrong answer",
	})
	require.NoError(t, err)
	assert.Equal(t, "dropped the carry", out.ErrorIdentification)
	assert.Equal(t, "always verify arithmetic", out.KeyInsight)
	require.Len(t, out.BulletTags, 1)
	assert.Equal(t, BulletTag{ID: "math-00001", Tag: "harmful"}, out.BulletTags[0])
	assert.Equal(t, 1, llm.CallCount(), "actionable output should stop after one round")
}

func TestReflectorPromptCarriesExcerptAndGroundTruth(t *testing.T) {
	llm := testutil.ScriptedLLM(actionableReflection)
	pb := playbook.New()
	bullet := pb.AddBullet("math", "Show your work", nil)

	truth := "42"
	r := NewReflector(llm, ReflectorConfig{})
	_, err := r.Reflect(context.Background(), ReflectRequest{
		Question:    "q",
		Generator:   &GeneratorOutput{BulletIDs: []string{bullet.ID, bullet.ID, "missing-id"}},
		Playbook:    pb,
		GroundTruth: &truth,
	})
	require.NoError(t, err)

	prompt := llm.Prompts()[0]
	assert.Contains(t, prompt, "["+bullet.ID+"] Show your work")
	assert.Contains(t, prompt, "42")
	assert.NotContains(t, prompt, "missing-id")
}

func TestReflectorRefinementReturnsLastParsedWhenNeverActionable(t *testing.T) {
	llm := testutil.ScriptedLLM(`{"reasoning": "inconclusive", "bullet_tags": []}`)

	r := NewReflector(llm, ReflectorConfig{MaxRefinementRounds: 3})
	out, err := r.Reflect(context.Background(), ReflectRequest{
		Question:  "q",
		Generator: &GeneratorOutput{FinalAnswer: "a"},
	})
	require.NoError(t, err)
	assert.Equal(t, "inconclusive", out.Reasoning)
	assert.Empty(t, out.BulletTags)
	assert.Equal(t, 3, llm.CallCount(), "non-actionable rounds should exhaust the budget")
}

func TestReflectorCustomActionablePolicy(t *testing.T) {
	llm := testutil.ScriptedLLM(`{"reasoning": "anything"}`)

	r := NewReflector(llm, ReflectorConfig{
		MaxRefinementRounds: 3,
		Actionable:          func(out *ReflectorOutput) bool { return out.Reasoning != "" },
	})
	_, err := r.Reflect(context.Background(), ReflectRequest{
		Question:  "q",
		Generator: &GeneratorOutput{},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, llm.CallCount())
}

func TestReflectorFailsWhenEveryRoundUnparseable(t *testing.T) {
	llm := testutil.ScriptedLLM("not json")

	r := NewReflector(llm, ReflectorConfig{MaxRetries: 2, MaxRefinementRounds: 2})
	_, err := r.Reflect(context.Background(), ReflectRequest{
		Question:  "q",
		Generator: &GeneratorOutput{},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.RoleFailed))
	assert.Equal(t, 4, llm.CallCount(), "2 rounds of 2 retries each")
}

func TestReflectorRequiresGeneratorOutput(t *testing.T) {
	r := NewReflector(testutil.ScriptedLLM(), ReflectorConfig{})
	_, err := r.Reflect(context.Background(), ReflectRequest{Question: "q"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.InvalidInput))
}
