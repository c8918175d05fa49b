// Package pool provides a fixed-size worker pool.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/zerr"
)

// Result is the completion of one submitted item.
type Result[T any] struct {
	Item    T
	Err     error
	Elapsed time.Duration
}

// Pool runs items on a fixed number of long-lived workers.
// Workers share one task channel and one completion channel. They only run
// items and report results; all bookkeeping stays with the submitter.
type Pool[T any] struct {
	workers int
	run     func(context.Context, T) error

	tasks   chan T
	results chan Result[T]
	wg      sync.WaitGroup
	once    sync.Once
}

// New creates a pool of workers goroutines. capacity bounds both the task and
// the completion channel, so a submitter that never has more than capacity
// items outstanding never blocks.
func New[T any](workers, capacity int, run func(context.Context, T) error) *Pool[T] {
	workers = max(workers, 1)
	capacity = max(capacity, workers)
	return &Pool[T]{
		workers: workers,
		run:     run,
		tasks:   make(chan T, capacity),
		results: make(chan Result[T], capacity),
	}
}

// Start launches the workers. ctx is handed to every run call.
func (p *Pool[T]) Start(ctx context.Context) {
	for range p.workers {
		p.wg.Go(func() {
			for item := range p.tasks {
				p.results <- p.execute(ctx, item)
			}
		})
	}
}

func (p *Pool[T]) execute(ctx context.Context, item T) (res Result[T]) {
	start := time.Now()
	res.Item = item
	defer func() {
		if r := recover(); r != nil {
			res.Err = zerr.With(domain.ErrActionPanicked, "panic", fmt.Sprint(r))
		}
		res.Elapsed = time.Since(start)
	}()

	res.Err = p.run(ctx, item)
	return res
}

// Submit queues item for a worker.
func (p *Pool[T]) Submit(item T) {
	p.tasks <- item
}

// Results returns the completion channel.
func (p *Pool[T]) Results() <-chan Result[T] {
	return p.results
}

// Size returns the number of workers.
func (p *Pool[T]) Size() int {
	return p.workers
}

// Shutdown closes the task channel and waits for every worker to exit.
// Items still queued are run first. Results not yet received stay buffered.
func (p *Pool[T]) Shutdown() {
	p.once.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}
