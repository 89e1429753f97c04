package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWorkerPool_Process_SubmissionOrder(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 3}, zap.NewNop())

	// Later items finish first.
	items := make([]WorkItem[int], 5)
	for i := range items {
		items[i] = WorkItem[int]{
			ID: fmt.Sprintf("task%d", i),
			Execute: func(ctx context.Context) (int, error) {
				time.Sleep(time.Duration(5-i) * 5 * time.Millisecond)
				return i * 10, nil
			},
		}
	}

	results := Process(context.Background(), pool, items, nil)

	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if r.ID != fmt.Sprintf("task%d", i) {
			t.Errorf("result %d: expected ID task%d, got %s", i, i, r.ID)
		}
		if r.Result != i*10 {
			t.Errorf("result %d: expected %d, got %d", i, i*10, r.Result)
		}
	}
}

func TestWorkerPool_Process_WithErrors(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())

	expectedErr := errors.New("task failed")
	items := []WorkItem[string]{
		{ID: "task1", Execute: func(ctx context.Context) (string, error) { return "result1", nil }},
		{ID: "task2", Execute: func(ctx context.Context) (string, error) { return "", expectedErr }},
		{ID: "task3", Execute: func(ctx context.Context) (string, error) { return "result3", nil }},
	}

	results := Process(context.Background(), pool, items, nil)

	if results[0].Err != nil || results[0].Result != "result1" {
		t.Errorf("task1 should succeed, got %q / %v", results[0].Result, results[0].Err)
	}
	if results[1].Err != expectedErr {
		t.Errorf("task2 should fail with expectedErr, got: %v", results[1].Err)
	}
	if results[2].Err != nil || results[2].Result != "result3" {
		t.Errorf("task3 should succeed, got %q / %v", results[2].Result, results[2].Err)
	}
}

func TestWorkerPool_Process_EmptyItems(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())

	results := Process[int](context.Background(), pool, nil, nil)

	if results != nil {
		t.Errorf("expected nil results for empty items, got %v", results)
	}
}

func TestWorkerPool_Process_BoundedConcurrency(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())

	var current, peak int32
	items := make([]WorkItem[struct{}], 8)
	for i := range items {
		items[i] = WorkItem[struct{}]{
			ID: fmt.Sprintf("task%d", i),
			Execute: func(ctx context.Context) (struct{}, error) {
				n := atomic.AddInt32(&current, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				return struct{}{}, nil
			},
		}
	}

	Process(context.Background(), pool, items, nil)

	if got := atomic.LoadInt32(&peak); got > 2 {
		t.Errorf("expected at most 2 concurrent items, saw %d", got)
	}
}

func TestWorkerPool_Process_Progress(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())

	items := make([]WorkItem[int], 4)
	for i := range items {
		items[i] = WorkItem[int]{
			ID:      fmt.Sprintf("task%d", i),
			Execute: func(ctx context.Context) (int, error) { return i, nil },
		}
	}

	var (
		mu    sync.Mutex
		calls []int
	)
	Process(context.Background(), pool, items, func(completed, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != 4 {
			t.Errorf("expected total 4, got %d", total)
		}
		calls = append(calls, completed)
	})

	if len(calls) != 4 {
		t.Fatalf("expected 4 progress calls, got %d", len(calls))
	}
	for i, c := range calls {
		if c != i+1 {
			t.Errorf("progress call %d: expected completed=%d, got %d", i, i+1, c)
		}
	}
}

func TestWorkerPool_Process_ContextCancelled(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 1}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})

	items := []WorkItem[int]{
		{ID: "blocking", Execute: func(ctx context.Context) (int, error) {
			cancel()
			<-release
			return 1, nil
		}},
		{ID: "waiting", Execute: func(ctx context.Context) (int, error) { return 2, nil }},
	}

	// If "blocking" takes the slot first, "waiting" gives up with ctx.Err().
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	results := Process(ctx, pool, items, nil)

	if len(results) != 2 {
		t.Fatalf("expected a result for every item, got %d", len(results))
	}
	cancelled := 0
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			cancelled++
		}
	}
	if cancelled > 1 {
		t.Errorf("expected at most one cancelled item, got %d", cancelled)
	}
}

func TestNewWorkerPool_Defaults(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 0}, nil)
	if pool.config.MaxConcurrent != 1 {
		t.Errorf("expected MaxConcurrent=1, got %d", pool.config.MaxConcurrent)
	}
}
