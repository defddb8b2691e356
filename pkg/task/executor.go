// Package task runs fire-and-forget work in the background. Tasks are detached from the request
// that submitted them, their outcome is only logged.
package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrShutdown is returned by Submit once the executor is shut down.
var ErrShutdown = errors.New("executor is shut down")

// Func is the work of a task. The context is cancelled once the task times out or the executor
// shuts down.
type Func func(ctx context.Context) error

// NewExecutor creates an executor running at most concurrency tasks at once. Each task is bound by
// timeout.
func NewExecutor(logger *slog.Logger, concurrency int64, timeout time.Duration) *Executor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Executor{
		logger:  logger,
		sem:     semaphore.NewWeighted(concurrency),
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

type Executor struct {
	logger  *slog.Logger
	sem     *semaphore.Weighted
	timeout time.Duration

	mu       sync.Mutex
	shutdown bool
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// Submit schedules fn to run after delay. Values of ctx, like the correlation id, are kept but its
// cancellation is not.
func (e *Executor) Submit(ctx context.Context, name string, delay time.Duration, fn Func) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.shutdown {
		return ErrShutdown
	}

	e.wg.Add(1)
	go e.run(context.WithoutCancel(ctx), name, delay, fn)
	return nil
}

func (e *Executor) run(ctx context.Context, name string, delay time.Duration, fn Func) {
	defer e.wg.Done()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-e.ctx.Done():
		e.logger.WarnContext(ctx, "Task dropped on shutdown", "task", name)
		return
	}

	if err := e.sem.Acquire(e.ctx, 1); err != nil {
		e.logger.WarnContext(ctx, "Task dropped on shutdown", "task", name)
		return
	}
	defer e.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	stop := context.AfterFunc(e.ctx, cancel)
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "Task panicked", "task", name, "panic", r)
		}
	}()

	start := time.Now()
	if err := fn(ctx); err != nil {
		e.logger.ErrorContext(ctx, "Task failed", "task", name, "error", err, "duration", time.Since(start))
		return
	}
	e.logger.DebugContext(ctx, "Task done", "task", name, "duration", time.Since(start))
}

// Shutdown stops accepting tasks and waits for submitted tasks. Tasks still waiting for their
// delay or still running once ctx is done are cancelled.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.shutdown = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.cancel()
		return nil
	case <-ctx.Done():
		e.cancel()
		<-done
		return ctx.Err()
	}
}
