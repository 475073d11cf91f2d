package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nao1215/mintmerge/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the build state
// accumulated by previous steps.
type Step interface {
	// Do executes the pipeline step.
	// A returned error aborts the build.
	Do(ctx context.Context, build *model.Build) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Observer is notified after each step completes successfully.
// The CLI uses it to print progress lines.
type Observer interface {
	StepCompleted(name string, build *model.Build)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(name string, build *model.Build)

// StepCompleted calls f(name, build).
func (f ObserverFunc) StepCompleted(name string, build *model.Build) {
	f(name, build)
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// observers are notified after each completed step.
	observers []Observer
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithObserver registers an observer for completed steps.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence and stops at the first error.
// Cancellation is checked before each step.
func (p *Pipeline) Execute(ctx context.Context, build *model.Build) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("build cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"build", build.ID,
		)

		if err := step.Do(ctx, build); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"build", build.ID,
				"error", err,
			)
			return err
		}

		build.PerformedSteps = append(build.PerformedSteps, step.Name())
		for _, o := range p.observers {
			o.StepCompleted(step.Name(), build)
		}
	}

	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// NewBuild creates a Build with a fresh random ID.
func NewBuild(root, outputPath string) *model.Build {
	return model.NewBuild(uuid.NewString(), root, outputPath)
}
