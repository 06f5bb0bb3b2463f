package ace

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/logging"
	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

// DefaultReflectionWindow is how many recent reflections are carried into
// subsequent generator invocations.
const DefaultReflectionWindow = 3

// Sample is one training task.
type Sample struct {
	Question string
	Context  string
	// GroundTruth is nil for samples without a reference answer.
	GroundTruth *string
	Metadata    map[string]interface{}
}

// EnvironmentResult is the task environment's judgment of one generator
// output.
type EnvironmentResult struct {
	Feedback string
	// GroundTruth may reveal the reference answer post-hoc even when the
	// sample carried none.
	GroundTruth *string
	Metrics     map[string]float64
}

// TaskEnvironment scores generator outputs. Implementations own the notion
// of correctness for their task.
type TaskEnvironment interface {
	Evaluate(ctx context.Context, sample Sample, output *GeneratorOutput) (*EnvironmentResult, error)
}

// StepResult records one fully processed sample.
type StepResult struct {
	ID          string
	Sample      Sample
	Generator   *GeneratorOutput
	Environment *EnvironmentResult
	Reflection  *ReflectorOutput
	Curator     *CuratorOutput
	// PlaybookSnapshot is the serialized playbook after this step's delta
	// was applied.
	PlaybookSnapshot string
}

// AdapterConfig wires the three roles around a shared playbook.
type AdapterConfig struct {
	Playbook  *playbook.Playbook
	Generator *Generator
	Reflector *Reflector
	Curator   *Curator
	// ReflectionWindow bounds the FIFO of recent reflections fed back to
	// the generator. Zero means DefaultReflectionWindow.
	ReflectionWindow int
}

// adapter runs the generate/evaluate/reflect/curate cycle for one sample at
// a time. It is not safe for concurrent use.
type adapter struct {
	playbook          *playbook.Playbook
	generator         *Generator
	reflector         *Reflector
	curator           *Curator
	reflectionWindow  int
	recentReflections []string
	logger            *logging.Logger
}

func newAdapter(config AdapterConfig) (*adapter, error) {
	if config.Generator == nil || config.Reflector == nil || config.Curator == nil {
		return nil, errors.New(errors.InvalidInput, "adapter requires generator, reflector, and curator")
	}
	if config.Playbook == nil {
		config.Playbook = playbook.New()
	}
	if config.ReflectionWindow <= 0 {
		config.ReflectionWindow = DefaultReflectionWindow
	}
	return &adapter{
		playbook:         config.Playbook,
		generator:        config.Generator,
		reflector:        config.Reflector,
		curator:          config.Curator,
		reflectionWindow: config.ReflectionWindow,
		logger:           logging.GetLogger(),
	}, nil
}

// reflectionContext joins the windowed reflections oldest-first.
func (a *adapter) reflectionContext() string {
	return strings.Join(a.recentReflections, "\n---\n")
}

func (a *adapter) rememberReflection(reflection *ReflectorOutput) {
	serialized, err := json.Marshal(reflection.Raw)
	if err != nil {
		return
	}
	a.recentReflections = append(a.recentReflections, string(serialized))
	if len(a.recentReflections) > a.reflectionWindow {
		a.recentReflections = a.recentReflections[len(a.recentReflections)-a.reflectionWindow:]
	}
}

// processSample runs the full cycle for one sample and mutates the shared
// playbook. A role failure aborts the sample; mutations already applied by
// earlier samples stay in place.
func (a *adapter) processSample(ctx context.Context, sample Sample, env TaskEnvironment, progress string) (*StepResult, error) {
	genOut, err := a.generator.Generate(ctx, GenerateRequest{
		Question:   sample.Question,
		Context:    sample.Context,
		Playbook:   a.playbook,
		Reflection: a.reflectionContext(),
	})
	if err != nil {
		return nil, err
	}

	envRes, err := env.Evaluate(ctx, sample, genOut)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "environment evaluation failed")
	}

	groundTruth := sample.GroundTruth
	if groundTruth == nil {
		groundTruth = envRes.GroundTruth
	}
	reflection, err := a.reflector.Reflect(ctx, ReflectRequest{
		Question:    sample.Question,
		Generator:   genOut,
		Playbook:    a.playbook,
		GroundTruth: groundTruth,
		Feedback:    envRes.Feedback,
	})
	if err != nil {
		return nil, err
	}

	for _, tag := range reflection.BulletTags {
		if _, err := a.playbook.TagBullet(tag.ID, tag.Tag, 1); err != nil {
			a.logger.Debug(ctx, "skipping bullet tag %s=%s: %v", tag.ID, tag.Tag, err)
		}
	}
	a.rememberReflection(reflection)

	curatorOut, err := a.curator.Curate(ctx, CurateRequest{
		Reflection:      reflection,
		Playbook:        a.playbook,
		QuestionContext: questionContext(sample, envRes),
		Progress:        progress,
	})
	if err != nil {
		return nil, err
	}
	a.playbook.ApplyDelta(curatorOut.Delta)

	snapshot, err := a.playbook.Dumps()
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to snapshot playbook")
	}
	return &StepResult{
		ID:               uuid.NewString(),
		Sample:           sample,
		Generator:        genOut,
		Environment:      envRes,
		Reflection:       reflection,
		Curator:          curatorOut,
		PlaybookSnapshot: snapshot,
	}, nil
}

// questionContext summarizes a sample and its evaluation for the curator.
func questionContext(sample Sample, envRes *EnvironmentResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "question: %s", sample.Question)
	if sample.Context != "" {
		fmt.Fprintf(&b, "\ncontext: %s", sample.Context)
	}
	if len(sample.Metadata) > 0 {
		if meta, err := json.Marshal(sample.Metadata); err == nil {
			fmt.Fprintf(&b, "\nmetadata: %s", meta)
		}
	}
	if envRes != nil {
		if envRes.Feedback != "" {
			fmt.Fprintf(&b, "\nfeedback: %s", envRes.Feedback)
		}
		if envRes.GroundTruth != nil {
			fmt.Fprintf(&b, "\nground_truth: %s", *envRes.GroundTruth)
		}
	}
	return b.String()
}

func progressLabel(epoch, totalEpochs, step, totalSteps int) string {
	return fmt.Sprintf("epoch %d/%d · sample %d/%d", epoch, totalEpochs, step, totalSteps)
}

// OfflineAdapter trains the playbook over a fixed sample set for a number of
// epochs.
type OfflineAdapter struct {
	*adapter
}

// NewOfflineAdapter wires an offline training loop.
func NewOfflineAdapter(config AdapterConfig) (*OfflineAdapter, error) {
	a, err := newAdapter(config)
	if err != nil {
		return nil, err
	}
	return &OfflineAdapter{adapter: a}, nil
}

// Playbook returns the shared playbook being trained.
func (o *OfflineAdapter) Playbook() *playbook.Playbook { return o.playbook }

// Run processes every sample once per epoch, in order. It returns the step
// results accumulated so far together with the first error encountered;
// playbook mutations from completed samples are kept either way.
func (o *OfflineAdapter) Run(ctx context.Context, samples []Sample, env TaskEnvironment, epochs int) ([]StepResult, error) {
	if epochs <= 0 {
		epochs = 1
	}
	if env == nil {
		return nil, errors.New(errors.InvalidInput, "offline adaptation requires a task environment")
	}

	var results []StepResult
	for epoch := 1; epoch <= epochs; epoch++ {
		for i, sample := range samples {
			if err := errors.CheckContext(ctx, "offline adaptation"); err != nil {
				return results, err
			}
			progress := progressLabel(epoch, epochs, i+1, len(samples))
			o.logger.Info(ctx, "processing %s", progress)
			step, err := o.processSample(ctx, sample, env, progress)
			if err != nil {
				return results, err
			}
			results = append(results, *step)
		}
	}
	return results, nil
}

// OnlineAdapter trains the playbook over a live sample stream.
type OnlineAdapter struct {
	*adapter
}

// NewOnlineAdapter wires a streaming training loop.
func NewOnlineAdapter(config AdapterConfig) (*OnlineAdapter, error) {
	a, err := newAdapter(config)
	if err != nil {
		return nil, err
	}
	return &OnlineAdapter{adapter: a}, nil
}

// Playbook returns the shared playbook being trained.
func (o *OnlineAdapter) Playbook() *playbook.Playbook { return o.playbook }

// Run consumes samples until the channel closes or the context is canceled.
// Each sample is processed against the playbook state its predecessors left
// behind.
func (o *OnlineAdapter) Run(ctx context.Context, samples <-chan Sample, env TaskEnvironment) ([]StepResult, error) {
	if env == nil {
		return nil, errors.New(errors.InvalidInput, "online adaptation requires a task environment")
	}

	var results []StepResult
	step := 0
	for {
		select {
		case <-ctx.Done():
			return results, errors.Wrap(ctx.Err(), errors.Canceled, "online adaptation canceled")
		case sample, ok := <-samples:
			if !ok {
				return results, nil
			}
			step++
			progress := fmt.Sprintf("online · sample %d", step)
			o.logger.Info(ctx, "processing %s", progress)
			result, err := o.processSample(ctx, sample, env, progress)
			if err != nil {
				return results, err
			}
			results = append(results, *result)
		}
	}
}
