// Package eventloop runs deferred-mode continuations on a single goroutine.
//
// Blocking collaborator calls (filesystem probes, reads, fetches) run on
// worker goroutines, bounded by a semaphore; their continuations are queued
// back onto the loop so that module records, caches, and the script host are
// only ever touched by the goroutine calling Run.
package eventloop

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxInflight bounds concurrent blocking calls when New gets 0.
const DefaultMaxInflight = 16

// Loop is a single-threaded continuation queue.
type Loop struct {
	sem     *semaphore.Weighted
	wake    chan struct{}
	queue   []func()
	pending int
	mu      sync.Mutex
}

// New creates a loop allowing at most maxInflight concurrent blocking calls.
func New(maxInflight int64) *Loop {
	if maxInflight <= 0 {
		maxInflight = DefaultMaxInflight
	}
	return &Loop{
		sem:  semaphore.NewWeighted(maxInflight),
		wake: make(chan struct{}, 1),
	}
}

// Post queues fn to run on the loop goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.pending++
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
}

// Submit runs work on a worker goroutine and queues then(result) on the loop.
func Submit[T any](l *Loop, work func() T, then func(T)) {
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()

	go func() {
		_ = l.sem.Acquire(context.Background(), 1)
		result := work()
		l.sem.Release(1)

		l.mu.Lock()
		l.queue = append(l.queue, func() { then(result) })
		l.mu.Unlock()
		l.signal()
	}()
}

// Pending returns the number of queued or in-flight operations.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// Run executes continuations until no work is pending or ctx is done.
// A stalled blocking call stalls Run until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			idle := l.pending == 0
			l.mu.Unlock()
			if idle {
				return nil
			}
			select {
			case <-l.wake:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		job := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		job()

		l.mu.Lock()
		l.pending--
		l.mu.Unlock()
	}
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
