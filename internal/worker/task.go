// Package worker runs a single OCR task and reduces every outcome to a domain.Result.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spherical/ocr-batch/internal/domain"
)

// User-facing failure messages.
const (
	MsgEncrypted        = "Encrypted PDF - cannot process."
	msgInputFilePrefix  = "Input file error: "
	msgUnexpectedPrefix = "Unexpected error: "
)

// Runner executes Tasks against an Engine. Inspector and Prober are optional.
type Runner struct {
	engine    domain.Engine
	inspector domain.Inspector
	prober    domain.Prober
}

// Option configures a Runner
type Option func(*Runner)

// WithInspector enables the pre-flight check before the engine runs
func WithInspector(i domain.Inspector) Option {
	return func(r *Runner) { r.inspector = i }
}

// WithProber enables reading the output text layer after a successful run
func WithProber(p domain.Prober) Option {
	return func(r *Runner) { r.prober = p }
}

// NewRunner creates a new task runner
func NewRunner(engine domain.Engine, opts ...Option) *Runner {
	r := &Runner{engine: engine}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run attempts one conversion. It never returns an error and never panics:
// every failure is folded into a domain.Failure.
func (r *Runner) Run(ctx context.Context, task domain.Task) (result domain.Result) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			result = newFailure(task, fmt.Errorf("panic: %v", rec), time.Since(start))
		}
	}()

	if r.inspector != nil {
		if _, err := r.inspector.Inspect(ctx, task.InputPath); err != nil {
			return newFailure(task, err, time.Since(start))
		}
	}

	if err := r.engine.Convert(ctx, task); err != nil {
		return newFailure(task, err, time.Since(start))
	}

	success := domain.Success{
		InputPath:  task.InputPath,
		OutputPath: task.OutputPath,
	}

	// Probe failures leave the counts at zero; the engine already succeeded.
	if r.prober != nil {
		if layer, err := r.prober.Probe(ctx, task.OutputPath); err == nil && layer != nil {
			success.Pages = layer.Pages
			success.TextChars = layer.Chars
		}
	}

	success.Duration = time.Since(start)
	return success
}

// newFailure classifies err into a Failure with a human-readable message
func newFailure(task domain.Task, err error, elapsed time.Duration) domain.Failure {
	kind := domain.TypeOf(err)
	return domain.Failure{
		InputPath: task.InputPath,
		Kind:      kind,
		Message:   Message(err),
		Duration:  elapsed,
	}
}

// Message renders err the way the batch summary reports it
func Message(err error) string {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return msgUnexpectedPrefix + err.Error()
	}

	switch de.Type {
	case domain.ErrorTypeEncrypted:
		return MsgEncrypted
	case domain.ErrorTypeInputFile:
		return msgInputFilePrefix + de.Detail()
	default:
		return msgUnexpectedPrefix + de.Detail()
	}
}
