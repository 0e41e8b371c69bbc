package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/monopad/internal/domain/animation"
	"github.com/okian/monopad/internal/domain/rating"
)

func job(id string) Job {
	return animation.Job{ID: id, EntityID: "e", Kind: rating.TrustRankUp, Previous: 1, Current: 2}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if _, ok := q.Pop(); ok {
		t.Error("expected pop on empty queue to fail")
	}

	if err := q.Push(ctx, job("job1")); err != nil {
		t.Fatalf("expected push to succeed, got %v", err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	select {
	case <-q.Ready():
	default:
		t.Error("expected ready signal after push")
	}

	got, ok := q.Pop()
	if !ok || got.ID != "job1" {
		t.Errorf("expected job1, got %v (ok=%v)", got.ID, ok)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		if err := q.Push(ctx, job(fmt.Sprintf("job%d", i))); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}

	// One pending signal no matter how many pushes.
	<-q.Ready()
	select {
	case <-q.Ready():
		t.Error("expected a single coalesced ready signal")
	default:
	}

	for i := 0; i < 50; i++ {
		got, ok := q.Pop()
		if !ok {
			t.Fatalf("expected job at position %d", i)
		}
		if want := fmt.Sprintf("job%d", i); got.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, got.ID)
		}
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if err := q.Push(ctx, job("job1")); err != nil {
		t.Error("expected push to succeed")
	}
	if err := q.Push(ctx, job("job2")); err != nil {
		t.Error("expected push to succeed")
	}
	if err := q.Push(ctx, job("job3")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Push(ctx, job("job1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()
	numGoroutines := 10
	numJobs := 100

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numJobs; j++ {
				if err := q.Push(ctx, job(fmt.Sprintf("job%d_%d", id, j))); err != nil {
					t.Errorf("push: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	if l := q.Len(); l != numGoroutines*numJobs {
		t.Errorf("expected length %d, got %d", numGoroutines*numJobs, l)
	}

	seen := make(map[string]bool)
	for {
		j, ok := q.Pop()
		if !ok {
			break
		}
		if seen[j.ID] {
			t.Errorf("job %s popped twice", j.ID)
		}
		seen[j.ID] = true
	}
	if len(seen) != numGoroutines*numJobs {
		t.Errorf("expected %d distinct jobs, got %d", numGoroutines*numJobs, len(seen))
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	if err := q.Push(ctx, job("job1")); err != nil {
		t.Error("expected push to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if err := q.Push(ctx, job("job2")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// Queued work survives the close.
	if got, ok := q.Pop(); !ok || got.ID != "job1" {
		t.Errorf("expected job1 after close, got %v (ok=%v)", got.ID, ok)
	}

	// Drain the pending signal, then the closed channel reports !ok.
	<-q.Ready()
	if _, ok := <-q.Ready(); ok {
		t.Error("expected ready channel to be closed")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
