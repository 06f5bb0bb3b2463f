package ace

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/ace-go/internal/testutil"
	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

func TestEvaluateBatchRecordsAllSamples(t *testing.T) {
	llm := testutil.ScriptedLLM(generatorReply)
	gen := NewGenerator(llm, GeneratorConfig{})
	pb := playbook.New()
	pb.AddBullet("math", "Show your work", nil)

	samples := []Sample{
		{Question: "a"}, {Question: "b"}, {Question: "c"}, {Question: "d"},
	}
	records, err := EvaluateBatch(context.Background(), gen, pb, samples, stubEnv{}, 2)
	require.NoError(t, err)
	require.Len(t, records, 4)

	for i, record := range records {
		assert.Equal(t, samples[i].Question, record.Sample.Question, "records preserve sample order")
		require.NoError(t, record.Err)
		assert.Equal(t, "42", record.Generator.FinalAnswer)
		assert.Equal(t, "looks correct", record.Environment.Feedback)
	}
	assert.Len(t, pb.Bullets(), 1, "evaluation never mutates the playbook")
}

func TestEvaluateBatchIsolatesPerSampleFailures(t *testing.T) {
	llm := testutil.ScriptedLLM(generatorReply)
	gen := NewGenerator(llm, GeneratorConfig{})

	env := stubEnv{fn: func(sample Sample, _ *GeneratorOutput) (*EnvironmentResult, error) {
		if sample.Question == "b" {
			return nil, fmt.Errorf("scorer unavailable")
		}
		return &EnvironmentResult{Feedback: "ok"}, nil
	}}
	records, err := EvaluateBatch(context.Background(), gen, playbook.New(),
		[]Sample{{Question: "a"}, {Question: "b"}, {Question: "c"}}, env, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.NoError(t, records[0].Err)
	assert.Error(t, records[1].Err)
	assert.NoError(t, records[2].Err)
}

func TestEvaluateBatchValidatesInput(t *testing.T) {
	_, err := EvaluateBatch(context.Background(), nil, playbook.New(), nil, stubEnv{}, 1)
	assert.True(t, errors.IsCode(err, errors.InvalidInput))

	gen := NewGenerator(testutil.ScriptedLLM(), GeneratorConfig{})
	_, err = EvaluateBatch(context.Background(), gen, playbook.New(), nil, nil, 1)
	assert.True(t, errors.IsCode(err, errors.InvalidInput))
}
