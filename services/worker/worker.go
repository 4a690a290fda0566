package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Task is one unit of work run by the pool
type Task[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Result is delivered once per task, in completion order
type Result[T any] struct {
	Name     string
	Value    T
	Err      error
	Duration time.Duration
}

// Pool runs tasks on at most Size goroutines. After each task a worker
// waits Delay before taking the next one.
type Pool struct {
	size  int64
	delay time.Duration
}

// NewPool creates a pool; sizes below one are raised to one
func NewPool(size int, delay time.Duration) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: int64(size), delay: delay}
}

// Size returns the number of concurrent workers
func (p *Pool) Size() int {
	return int(p.size)
}

// Run executes tasks on the pool and calls onResult for each one as it
// completes. onResult runs on the caller's goroutine, so it needs no locking.
// Tasks not started before ctx is canceled are reported with ctx's error.
func Run[T any](ctx context.Context, p *Pool, tasks []Task[T], onResult func(Result[T])) error {
	sem := semaphore.NewWeighted(p.size)
	results := make(chan Result[T], len(tasks))

	go func() {
		var wg sync.WaitGroup
		defer func() {
			wg.Wait()
			close(results)
		}()

		for _, task := range tasks {
			if err := sem.Acquire(ctx, 1); err != nil {
				results <- Result[T]{Name: task.Name, Err: err}
				continue
			}

			wg.Add(1)
			go func(task Task[T]) {
				defer wg.Done()
				defer sem.Release(1)

				results <- runTask(ctx, task)
				Sleep(ctx, p.delay)
			}(task)
		}
	}()

	for r := range results {
		if onResult != nil {
			onResult(r)
		}
	}
	return ctx.Err()
}

// runTask runs a task and turns a panic into an error result
func runTask[T any](ctx context.Context, task Task[T]) (res Result[T]) {
	start := time.Now()
	res.Name = task.Name
	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("task %s panicked: %v", task.Name, r)
		}
	}()

	res.Value, res.Err = task.Run(ctx)
	return res
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
