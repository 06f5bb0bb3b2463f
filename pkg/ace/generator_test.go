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

func TestGeneratorParsesOutput(t *testing.T) {
	llm := testutil.ScriptedLLM(`{
		"reasoning": "apply the distributive law",
		"bullet_ids": ["math-00001", 7],
		"final_answer": "12"
	}`)
	pb := playbook.New()
	pb.AddBullet("math", "Show your work", nil)

	gen := NewGenerator(llm, GeneratorConfig{})
	out, err := gen.Generate(context.Background(), GenerateRequest{
		Question: "What is 3*4?",
		Playbook: pb,
	})
	require.NoError(t, err)
	assert.Equal(t, "apply the distributive law", out.Reasoning)
	assert.Equal(t, "12", out.FinalAnswer)
	assert.Equal(t, []string{"math-00001", "7"}, out.BulletIDs)
	assert.Contains(t, out.Raw, "reasoning")
}

func TestGeneratorPromptCarriesPlaybookAndQuestion(t *testing.T) {
	llm := testutil.ScriptedLLM(`{"reasoning": "", "bullet_ids": [], "final_answer": "ok"}`)
	pb := playbook.New()
	pb.AddBullet("general", "Always be concise", nil)

	gen := NewGenerator(llm, GeneratorConfig{})
	_, err := gen.Generate(context.Background(), GenerateRequest{
		Question:   "Summarize the report",
		Context:    "the report is about Q3 revenue",
		Playbook:   pb,
		Reflection: "previous run missed the conclusion",
	})
	require.NoError(t, err)

	prompt := llm.Prompts()[0]
	assert.Contains(t, prompt, "Always be concise")
	assert.Contains(t, prompt, "Summarize the report")
	assert.Contains(t, prompt, "Q3 revenue")
	assert.Contains(t, prompt, "missed the conclusion")
}

func TestGeneratorEmptyPlaybookPlaceholder(t *testing.T) {
	llm := testutil.ScriptedLLM(`{"final_answer": "ok"}`)

	gen := NewGenerator(llm, GeneratorConfig{})
	_, err := gen.Generate(context.Background(), GenerateRequest{
		Question: "anything",
		Playbook: playbook.New(),
	})
	require.NoError(t, err)
	assert.Contains(t, llm.Prompts()[0], "(empty playbook)")
}

func TestGeneratorFailsAfterRetries(t *testing.T) {
	llm := testutil.ScriptedLLM("garbage")

	gen := NewGenerator(llm, GeneratorConfig{MaxRetries: 2})
	_, err := gen.Generate(context.Background(), GenerateRequest{Question: "q"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.RoleFailed))
	assert.Equal(t, 2, llm.CallCount())

	var coded *errors.Error
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, "generator", coded.Fields()["role"])
}
