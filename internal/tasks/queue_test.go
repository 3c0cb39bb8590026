package tasks

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/cinex/internal/shared"
)

type syncWriter struct {
	mu sync.Mutex
	b  *strings.Builder
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.String()
}

func TestQueue(t *testing.T) {
	t.Run("Runs In Order", func(t *testing.T) {
		q := NewQueue(context.Background(), nil)
		defer q.Close()

		var (
			mu    sync.Mutex
			order []int
		)
		for i := range 5 {
			q.Defer(func(context.Context) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
			})
		}

		if err := q.Settle(context.Background()); err != nil {
			t.Fatalf("settle failed: %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		for i, v := range order {
			if v != i {
				t.Fatalf("expected FIFO order, got %v", order)
			}
		}
		if len(order) != 5 {
			t.Errorf("expected 5 tasks to run, got %d", len(order))
		}
	})

	t.Run("Defer Does Not Block Caller Holding Lock", func(t *testing.T) {
		q := NewQueue(context.Background(), nil)
		defer q.Close()

		var mu sync.Mutex
		ran := make(chan struct{})

		mu.Lock()
		q.Defer(func(context.Context) {
			mu.Lock()
			defer mu.Unlock()
			close(ran)
		})
		select {
		case <-ran:
			t.Fatal("task ran while the caller still held the lock")
		case <-time.After(20 * time.Millisecond):
		}
		mu.Unlock()

		select {
		case <-ran:
		case <-time.After(time.Second):
			t.Fatal("task did not run after the lock was released")
		}
	})

	t.Run("Tasks Deferred By Tasks", func(t *testing.T) {
		q := NewQueue(context.Background(), nil)
		defer q.Close()

		done := make(chan struct{})
		q.Defer(func(context.Context) {
			q.Defer(func(context.Context) { close(done) })
		})

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("nested deferred task did not run")
		}
	})

	t.Run("Panic Is Recovered", func(t *testing.T) {
		w := &syncWriter{b: &strings.Builder{}}
		q := NewQueue(context.Background(), shared.NewLogger(w))
		defer q.Close()

		q.Defer(func(context.Context) { panic("boom") })
		ran := false
		q.Defer(func(context.Context) { ran = true })

		if err := q.Settle(context.Background()); err != nil {
			t.Fatalf("settle failed: %v", err)
		}
		if !ran {
			t.Error("queue stopped after a panicking task")
		}
		if !strings.Contains(w.String(), "deferred task panicked") {
			t.Errorf("expected panic to be logged, got %q", w.String())
		}
	})

	t.Run("Settle Honors Context", func(t *testing.T) {
		q := NewQueue(context.Background(), nil)
		defer q.Close()

		release := make(chan struct{})
		defer close(release)
		q.Defer(func(context.Context) { <-release })

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := q.Settle(ctx); err != context.DeadlineExceeded {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})

	t.Run("Close", func(t *testing.T) {
		q := NewQueue(context.Background(), nil)

		started := make(chan struct{})
		var taskCtx context.Context
		q.Defer(func(ctx context.Context) {
			taskCtx = ctx
			close(started)
			<-ctx.Done()
		})
		<-started

		q.Close()
		if taskCtx.Err() == nil {
			t.Error("expected the running task's context to be cancelled")
		}
		if q.Defer(func(context.Context) {}) {
			t.Error("expected Defer to report false after Close")
		}
		if err := q.Settle(context.Background()); err != nil {
			t.Errorf("settle on a closed queue should return nil, got %v", err)
		}
		q.Close()
	})
}
