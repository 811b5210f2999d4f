package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/spherical/ocr-batch/internal/config"
	"github.com/spherical/ocr-batch/internal/domain"
	"github.com/spherical/ocr-batch/internal/observability"
)

// TaskRunner executes one task. Implementations must not panic or drop work;
// worker.Runner is the production implementation.
type TaskRunner interface {
	Run(ctx context.Context, task domain.Task) domain.Result
}

type taskParam struct {
	idx     int
	task    domain.Task
	results []domain.Result
	wg      *sync.WaitGroup
}

// dispatch runs every task on a fixed-size pool and returns results in
// submission order. A pool size below 1 means config.DefaultWorkers(). The
// pool is released before dispatch returns.
func dispatch(
	ctx context.Context,
	runner TaskRunner,
	tasks []domain.Task,
	workers int,
	progress domain.Progress,
	logger *observability.Logger,
) ([]domain.Result, error) {
	results := make([]domain.Result, len(tasks))
	if len(tasks) == 0 {
		return results, nil
	}
	if workers < 1 {
		workers = config.DefaultWorkers()
	}

	pool, err := ants.NewPoolWithFunc(workers, func(args any) {
		param, ok := args.(*taskParam)
		if !ok {
			panic("ocr task pool args type error")
		}
		defer func() {
			progress.Add(1)
			param.wg.Done()
		}()
		param.results[param.idx] = runner.Run(ctx, param.task)
	}, ants.WithPanicHandler(func(p any) {
		logger.Error().Msgf("OCR worker panicked: %v", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("create ocr task pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		param := &taskParam{idx: i, task: task, results: results, wg: &wg}
		if err := pool.Invoke(param); err != nil {
			progress.Add(1)
			wg.Done()
			results[i] = domain.Failure{
				InputPath: task.InputPath,
				Kind:      domain.ErrorTypeUnexpected,
				Message:   fmt.Sprintf("Unexpected error: submit task: %v", err),
			}
		}
	}
	wg.Wait()
	progress.Finish()

	// A result slot can only be empty if a worker panicked past the runner.
	for i, r := range results {
		if r == nil {
			results[i] = domain.Failure{
				InputPath: tasks[i].InputPath,
				Kind:      domain.ErrorTypeUnexpected,
				Message:   "Unexpected error: worker produced no result",
			}
		}
	}

	return results, nil
}

type nopProgress struct{}

func (nopProgress) Add(int) {}
func (nopProgress) Finish() {}
