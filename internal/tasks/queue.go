package tasks

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinex/internal/shared"
)

// Task is a unit of deferred work. ctx is the queue's context.
type Task func(ctx context.Context)

// Queue runs deferred tasks one at a time, in submission order, on its own goroutine.
//
// Defer never blocks, so it is safe to call while holding a lock that the task itself
// will need. A panicking task is logged and does not stop the queue.
type Queue struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger

	mu      sync.Mutex
	pending []Task
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

// NewQueue starts a queue whose tasks run with a context derived from ctx.
func NewQueue(ctx context.Context, logger *log.Logger) *Queue {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	q := &Queue{
		ctx:    ctx,
		cancel: cancel,
		logger: shared.WithLogger(logger, "component", "queue"),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go q.loop()
	return q
}

// Defer schedules t to run after every previously deferred task. It reports false once the queue is closed.
func (q *Queue) Defer(t Task) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.pending = append(q.pending, t)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Settle blocks until every task deferred before the call has run, or ctx ends.
func (q *Queue) Settle(ctx context.Context) error {
	reached := make(chan struct{})
	if !q.Defer(func(context.Context) { close(reached) }) {
		return nil
	}

	select {
	case <-reached:
		return nil
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks, cancels the queue context and waits for the running task to return.
// Tasks still pending are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.pending = nil
	q.mu.Unlock()

	q.cancel()
	<-q.done
}

func (q *Queue) next() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || len(q.pending) == 0 {
		return nil, false
	}
	t := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	return t, true
}

func (q *Queue) loop() {
	defer close(q.done)

	for {
		for {
			t, ok := q.next()
			if !ok {
				break
			}
			q.run(t)
		}

		select {
		case <-q.ctx.Done():
			return
		case <-q.wake:
		}
	}
}

func (q *Queue) run(t Task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("deferred task panicked", "panic", r)
		}
	}()
	t(q.ctx)
}
