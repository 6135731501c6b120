// Package trigger holds sync requests until the cycle runner picks them up.
//
// The queue has a single slot. A request arriving while one is already
// pending is folded into it, so any burst of file events or API calls
// results in at most one pending cycle.
package trigger

import (
	"context"
	"sync"
	"time"

	"github.com/okian/aimsync/pkg/metrics"
)

// Trigger asks for one reconciliation cycle.
type Trigger struct {
	Reason string
	At     time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue requests a cycle. It returns false only when the queue is
	// closed; a request folded into a pending one still counts as accepted.
	Enqueue(ctx context.Context, t Trigger) bool

	// Dequeue returns the channel pending requests are delivered on. The
	// channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Trigger

	// Len returns 1 while a request is pending, else 0.
	Len(ctx context.Context) int

	Close() error
	IsClosed() bool
}

// CoalescingQueue implements Queue with a one-slot buffered channel.
type CoalescingQueue struct {
	slot chan Trigger

	mu     sync.RWMutex
	closed bool
}

// NewCoalescingQueue creates an empty queue.
func NewCoalescingQueue() *CoalescingQueue {
	return &CoalescingQueue{slot: make(chan Trigger, 1)}
}

// Enqueue implements Queue.
func (q *CoalescingQueue) Enqueue(ctx context.Context, t Trigger) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordTrigger("closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordTrigger("cancelled")
		return false
	}
	if t.At.IsZero() {
		t.At = time.Now()
	}

	select {
	case q.slot <- t:
		metrics.RecordTrigger("accepted")
	default:
		metrics.RecordTrigger("coalesced")
	}
	return true
}

// Dequeue implements Queue.
func (q *CoalescingQueue) Dequeue(_ context.Context) <-chan Trigger {
	return q.slot
}

// Len implements Queue.
func (q *CoalescingQueue) Len(_ context.Context) int {
	return len(q.slot)
}

// Close stops accepting requests and closes the dequeue channel. A pending
// request is still delivered.
func (q *CoalescingQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	q.closed = true
	close(q.slot)
	return nil
}

// IsClosed implements Queue.
func (q *CoalescingQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
