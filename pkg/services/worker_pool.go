package services

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// WorkerPoolConfig configures the column worker pool.
type WorkerPoolConfig struct {
	MaxConcurrent int // Maximum columns sampled at once (default: 1)
}

// DefaultWorkerPoolConfig analyzes one column at a time, which keeps scan-all to a
// single sampling query on the database.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		MaxConcurrent: 1,
	}
}

// WorkerPool runs work items with bounded parallelism.
// It uses a semaphore to limit outstanding work, so a new item starts as soon as
// any running item finishes.
type WorkerPool struct {
	config WorkerPoolConfig
	logger *zap.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(config WorkerPoolConfig, logger *zap.Logger) *WorkerPool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerPool{
		config: config,
		logger: logger.Named("worker-pool"),
	}
}

// WorkItem represents a unit of work to be processed.
type WorkItem[T any] struct {
	ID      string                               // For logging/tracking
	Execute func(ctx context.Context) (T, error) // The work to be executed
}

// WorkResult represents the result of a work item.
type WorkResult[T any] struct {
	ID     string
	Result T
	Err    error
}

// Process executes all work items with bounded parallelism.
// Results are returned in submission order; onProgress is called in completion order.
// Processing continues past failed items. Items still waiting for a slot when ctx
// is cancelled report ctx.Err().
func Process[T any](
	ctx context.Context,
	pool *WorkerPool,
	items []WorkItem[T],
	onProgress func(completed, total int),
) []WorkResult[T] {
	if len(items) == 0 {
		return nil
	}

	results := make([]WorkResult[T], len(items))
	sem := make(chan struct{}, pool.config.MaxConcurrent)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)

	finish := func(i int, result WorkResult[T]) {
		results[i] = result

		mu.Lock()
		defer mu.Unlock()
		completed++
		if onProgress != nil {
			onProgress(completed, len(items))
		}
	}

	for i, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Acquire semaphore slot (blocks if at max concurrency)
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				finish(i, WorkResult[T]{ID: item.ID, Err: ctx.Err()})
				return
			}

			result, err := item.Execute(ctx)
			if err != nil {
				pool.logger.Debug("Work item failed", zap.String("id", item.ID), zap.Error(err))
			}
			finish(i, WorkResult[T]{ID: item.ID, Result: result, Err: err})
		}()
	}

	wg.Wait()
	return results
}
