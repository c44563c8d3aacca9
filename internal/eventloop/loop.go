// Package eventloop runs every unit of diagram work on one goroutine.
//
// Producers on any goroutine hand closures to Post; Run executes them in
// submission order and never concurrently. Post never blocks, so network
// continuations can always be scheduled back onto the loop.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrStopped is returned when work is submitted to a finished loop
var ErrStopped = errors.New("event loop stopped")

// Loop is a single-consumer task queue
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	stopped bool
}

// New creates a loop. Tasks posted before Run are kept until it starts.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1), done: make(chan struct{})}
}

// Post schedules fn on the loop. It reports false when the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run executes queued tasks until ctx is cancelled. Tasks still queued at
// cancellation are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop()
	for {
		for _, fn := range l.take() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fn()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Call runs fn on the loop and waits for its result
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	if !l.Post(func() { done <- fn() }) {
		return ErrStopped
	}

	select {
	case err := <-done:
		return err
	case <-l.done:
		// the task may have run just before the loop stopped
		select {
		case err := <-done:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return fmt.Errorf("wait for event loop: %w", ctx.Err())
	}
}

// Drain runs queued tasks on the calling goroutine until the queue is empty,
// including tasks posted by the drained ones. It must not be used while Run
// is active.
func (l *Loop) Drain() int {
	n := 0
	for {
		tasks := l.take()
		if len(tasks) == 0 {
			return n
		}
		for _, fn := range tasks {
			fn()
			n++
		}
	}
}

// Pending returns the number of queued tasks
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	tasks := l.queue
	l.queue = nil
	return tasks
}

func (l *Loop) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.stopped {
		l.stopped = true
		l.queue = nil
		close(l.done)
	}
}
