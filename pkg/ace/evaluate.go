package ace

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

// DefaultEvalConcurrency bounds EvaluateBatch workers when the caller does
// not choose a limit.
const DefaultEvalConcurrency = 4

// EvaluationRecord is one sample's outcome from a read-only evaluation pass.
// Err is set when the generator or environment failed for that sample.
type EvaluationRecord struct {
	Sample      Sample
	Generator   *GeneratorOutput
	Environment *EnvironmentResult
	Err         error
}

// EvaluateBatch runs the generator over samples in parallel against a frozen
// playbook, without reflection or curation. The playbook must not be mutated
// while the batch is in flight. Per-sample failures are recorded rather than
// aborting the batch; records come back in sample order.
func EvaluateBatch(ctx context.Context, generator *Generator, pb *playbook.Playbook, samples []Sample, env TaskEnvironment, maxConcurrency int) ([]EvaluationRecord, error) {
	if generator == nil {
		return nil, errors.New(errors.InvalidInput, "evaluation requires a generator")
	}
	if env == nil {
		return nil, errors.New(errors.InvalidInput, "evaluation requires a task environment")
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultEvalConcurrency
	}

	records := make([]EvaluationRecord, len(samples))
	p := pool.New().WithMaxGoroutines(maxConcurrency)
	for i, sample := range samples {
		i, sample := i, sample
		p.Go(func() {
			records[i] = evaluateOne(ctx, generator, pb, sample, env)
		})
	}
	p.Wait()

	if err := errors.CheckContext(ctx, "batch evaluation"); err != nil {
		return records, err
	}
	return records, nil
}

func evaluateOne(ctx context.Context, generator *Generator, pb *playbook.Playbook, sample Sample, env TaskEnvironment) EvaluationRecord {
	record := EvaluationRecord{Sample: sample}
	genOut, err := generator.Generate(ctx, GenerateRequest{
		Question: sample.Question,
		Context:  sample.Context,
		Playbook: pb,
	})
	if err != nil {
		record.Err = err
		return record
	}
	record.Generator = genOut

	envRes, err := env.Evaluate(ctx, sample, genOut)
	if err != nil {
		record.Err = errors.Wrap(err, errors.Unknown, "environment evaluation failed")
		return record
	}
	record.Environment = envRes
	return record
}
