// Package worker runs fire-and-forget background tasks: outbound replies,
// local log writes and remote store mirrors. Enqueue never blocks, so the
// synchronous webhook path is never delayed by slow collaborators.
package worker

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vmkteam/embedlog"
)

// Task is one unit of background work. The error result is logged, never
// propagated: background failures must not surface to the user.
type Task struct {
	ID   string
	Name string
	Fn   func(ctx context.Context) error
}

// Pool is a bounded in-process task pool.
type Pool struct {
	embedlog.Logger
	tasks   chan Task
	workers int
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool with the given number of workers and queue capacity.
func NewPool(workers, capacity int, sl embedlog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if capacity < 1 {
		capacity = 1
	}

	return &Pool{
		Logger:  sl,
		tasks:   make(chan Task, capacity),
		workers: workers,
	}
}

// Run starts the workers and blocks until ctx is canceled and the queue has
// drained.
func (p *Pool) Run(ctx context.Context) error {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}

	<-ctx.Done()

	p.mu.Lock()
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	// tasks already queued are drained even after ctx cancellation; the task
	// funcs carry their own timeouts
	for task := range p.tasks {
		if err := task.Fn(context.WithoutCancel(ctx)); err != nil {
			tasksFailed.WithLabelValues(task.Name).Inc()
			p.Error(ctx, "background task failed", "task", task.Name, "task_id", task.ID, "err", err)
		}
	}
}

// Enqueue schedules fn for background execution and returns immediately.
// When the queue is full the task is dropped and counted; callers treat all
// background work as best-effort.
func (p *Pool) Enqueue(name string, fn func(ctx context.Context) error) {
	task := Task{ID: uuid.New().String(), Name: name, Fn: fn}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		tasksDropped.WithLabelValues(name).Inc()
		p.Error(context.Background(), "task dropped, pool stopped", "task", name, "task_id", task.ID)
		return
	}

	select {
	case p.tasks <- task:
	default:
		tasksDropped.WithLabelValues(name).Inc()
		p.Error(context.Background(), "task dropped, queue full", "task", name, "task_id", task.ID)
	}
}
