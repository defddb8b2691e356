package task

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor(t *testing.T) {
	t.Run("RunsTaskAfterDelay", func(t *testing.T) {
		e := NewExecutor(discardLogger(), 2, time.Second)
		submitted := time.Now()
		ran := make(chan time.Time, 1)

		err := e.Submit(context.Background(), "delayed", 50*time.Millisecond, func(ctx context.Context) error {
			ran <- time.Now()
			return nil
		})
		require.NoError(t, err)

		select {
		case at := <-ran:
			assert.GreaterOrEqual(t, at.Sub(submitted), 50*time.Millisecond)
		case <-time.After(time.Second):
			t.Fatal("task did not run")
		}
		require.NoError(t, e.Shutdown(context.Background()))
	})

	t.Run("TaskOutlivesSubmittingContext", func(t *testing.T) {
		e := NewExecutor(discardLogger(), 1, time.Second)
		type key struct{}
		ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "correlation"))
		var value atomic.Value

		err := e.Submit(ctx, "detached", 10*time.Millisecond, func(ctx context.Context) error {
			value.Store(ctx.Value(key{}))
			return ctx.Err()
		})
		require.NoError(t, err)
		cancel()

		require.NoError(t, e.Shutdown(context.Background()))
		assert.Equal(t, "correlation", value.Load())
	})

	t.Run("LogsFailure", func(t *testing.T) {
		var buf bytes.Buffer
		var mu sync.Mutex
		logger := slog.New(slog.NewJSONHandler(&lockedWriter{w: &buf, mu: &mu}, nil))
		e := NewExecutor(logger, 1, time.Second)

		err := e.Submit(context.Background(), "failing", 0, func(ctx context.Context) error {
			return errors.New("connection refused")
		})
		require.NoError(t, err)
		require.NoError(t, e.Shutdown(context.Background()))

		mu.Lock()
		defer mu.Unlock()
		assert.Contains(t, buf.String(), `"msg":"Task failed"`)
		assert.Contains(t, buf.String(), `"task":"failing"`)
		assert.Contains(t, buf.String(), "connection refused")
	})

	t.Run("RecoversPanic", func(t *testing.T) {
		e := NewExecutor(discardLogger(), 1, time.Second)

		err := e.Submit(context.Background(), "panicking", 0, func(ctx context.Context) error {
			panic("boom")
		})
		require.NoError(t, err)

		assert.NoError(t, e.Shutdown(context.Background()))
	})

	t.Run("BoundsConcurrency", func(t *testing.T) {
		e := NewExecutor(discardLogger(), 2, time.Second)
		var running, maxRunning atomic.Int32

		for range 6 {
			err := e.Submit(context.Background(), "bounded", 0, func(ctx context.Context) error {
				n := running.Add(1)
				for {
					m := maxRunning.Load()
					if n <= m || maxRunning.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			require.NoError(t, err)
		}
		require.NoError(t, e.Shutdown(context.Background()))

		assert.LessOrEqual(t, maxRunning.Load(), int32(2))
		assert.Positive(t, maxRunning.Load())
	})

	t.Run("TimesOutTask", func(t *testing.T) {
		e := NewExecutor(discardLogger(), 1, 20*time.Millisecond)
		var taskErr atomic.Value

		err := e.Submit(context.Background(), "slow", 0, func(ctx context.Context) error {
			<-ctx.Done()
			taskErr.Store(ctx.Err())
			return ctx.Err()
		})
		require.NoError(t, err)
		require.NoError(t, e.Shutdown(context.Background()))

		assert.ErrorIs(t, taskErr.Load().(error), context.DeadlineExceeded)
	})

	t.Run("RejectsTasksAfterShutdown", func(t *testing.T) {
		e := NewExecutor(discardLogger(), 1, time.Second)
		require.NoError(t, e.Shutdown(context.Background()))

		err := e.Submit(context.Background(), "late", 0, func(ctx context.Context) error { return nil })

		assert.ErrorIs(t, err, ErrShutdown)
	})

	t.Run("ShutdownCancelsPendingTasks", func(t *testing.T) {
		e := NewExecutor(discardLogger(), 1, time.Minute)
		var ran atomic.Bool

		err := e.Submit(context.Background(), "pending", time.Minute, func(ctx context.Context) error {
			ran.Store(true)
			return nil
		})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err = e.Shutdown(ctx)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.False(t, ran.Load())
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type lockedWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
