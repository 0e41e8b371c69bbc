// Package queue holds the FIFO of animation jobs waiting for the sequencer.
//
// The queue is an explicit slice, not a channel: producers never block,
// the consumer pops one job at a time, and a one-slot Ready channel wakes
// the consumer after a push.
package queue

import (
	"context"
	"sync"

	"github.com/okian/monopad/internal/domain/animation"
	"github.com/okian/monopad/pkg/metrics"
)

// Job is the payload flowing through the queue.
type Job = animation.Job

// Queue provides non-blocking push and explicit pop.
type Queue interface {
	// Push appends a job. It fails with ErrFull or ErrClosed.
	Push(ctx context.Context, job Job) error

	// Pop removes and returns the oldest job. ok is false when empty.
	Pop() (job Job, ok bool)

	// Ready receives a value after at least one push since the last
	// receive, and is closed when the queue is closed.
	Ready() <-chan struct{}

	// Len returns the number of waiting jobs.
	Len() int

	// Close stops accepting pushes. Jobs already queued can still be popped.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue on a slice guarded by a mutex.
type InMemoryQueue struct {
	mu       sync.Mutex
	jobs     []Job
	capacity int // <= 0 means unbounded
	ready    chan struct{}
	closed   bool
}

// NewInMemoryQueue creates an empty queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		ready: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(q)
	}
	metrics.UpdateQueueDepth(0)
	return q
}

// Push appends job to the tail.
func (q *InMemoryQueue) Push(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	if q.capacity > 0 && len(q.jobs) >= q.capacity {
		q.mu.Unlock()
		return ErrFull
	}
	q.jobs = append(q.jobs, job)
	depth := len(q.jobs)
	// Signalled under the lock so Close cannot close ready mid-send.
	select {
	case q.ready <- struct{}{}:
	default:
	}
	q.mu.Unlock()

	metrics.UpdateQueueDepth(depth)
	return nil
}

// Pop removes the head job.
func (q *InMemoryQueue) Pop() (Job, bool) {
	q.mu.Lock()
	if len(q.jobs) == 0 {
		q.mu.Unlock()
		return Job{}, false
	}
	job := q.jobs[0]
	q.jobs[0] = Job{}
	q.jobs = q.jobs[1:]
	if len(q.jobs) == 0 {
		q.jobs = nil
	}
	depth := len(q.jobs)
	q.mu.Unlock()

	metrics.UpdateQueueDepth(depth)
	return job, true
}

// Ready returns the wake-up channel.
func (q *InMemoryQueue) Ready() <-chan struct{} {
	return q.ready
}

// Len returns the number of waiting jobs.
func (q *InMemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Close stops accepting pushes and closes the Ready channel.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.ready)
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
