package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/docingest/internal/database"
	"github.com/nao1215/docingest/internal/state"
)

// Run carries the data shared by the steps of one pipeline execution.
type Run struct {
	// ID identifies the execution in logs and in the ingest_runs table.
	ID string

	// State is the ledger every step reads and mutates.
	State *state.RunState

	// URLs is the working URL list. The crawl step replaces it.
	URLs []string

	// Completed lists the names of the steps that finished successfully.
	Completed []string

	// Counts holds the summary counters of each completed step, by step name.
	Counts map[string]map[string]int
}

// NewRun creates a Run with a fresh ID.
func NewRun(rs *state.RunState, urls []string) *Run {
	return &Run{
		ID:     uuid.NewString(),
		State:  rs,
		URLs:   urls,
		Counts: make(map[string]map[string]int),
	}
}

// Step is one stage of the ingestion pipeline.
type Step interface {
	// Do executes the step. Per-URL failures are recorded on the ledger and
	// do not fail the step; a returned error stops the pipeline.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Checkpoint persists the run after a successful step.
type Checkpoint func(run *Run) error

// RunRecorder stores the outcome of each completed step.
// *database.CorpusDB implements it.
type RunRecorder interface {
	RecordRun(ctx context.Context, run database.Run) error
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
	checkpoint      Checkpoint
	recorder        RunRecorder
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing later steps after one fails.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// WithCheckpoint sets the function called after every successful step,
// typically saving the run state.
func WithCheckpoint(fn Checkpoint) Option {
	return func(p *Pipeline) {
		p.checkpoint = fn
	}
}

// WithRunRecorder records a row for every completed step.
func WithRunRecorder(r RunRecorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// New creates a new Pipeline with the given options.
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
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence.
// Cancellation is checked before each step, and a cancelled run is never
// checkpointed, so the saved state always reflects completed steps only.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	var firstErr error
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"run_id", run.ID,
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"run_id", run.ID,
		)

		started := time.Now()
		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"run_id", run.ID,
				"error", err,
			)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !p.continueOnError {
				return fmt.Errorf("step %s: %w", step.Name(), err)
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("step %s: %w", step.Name(), err)
			}
			continue
		}
		finished := time.Now()

		run.Completed = append(run.Completed, step.Name())
		p.logger.Debug("step completed",
			"step", step.Name(),
			"run_id", run.ID,
			"elapsed", finished.Sub(started),
		)

		if p.checkpoint != nil {
			if err := p.checkpoint(run); err != nil {
				return fmt.Errorf("checkpoint after %s: %w", step.Name(), err)
			}
		}
		if p.recorder != nil {
			rec := database.Run{
				ID:         run.ID + "/" + step.Name(),
				Stage:      step.Name(),
				StartedAt:  started,
				FinishedAt: finished,
				Counts:     run.Counts[step.Name()],
			}
			if err := p.recorder.RecordRun(ctx, rec); err != nil {
				p.logger.Warn("failed to record run", "step", step.Name(), "error", err)
			}
		}
	}

	return firstErr
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
