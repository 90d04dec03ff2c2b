package engine

import (
	"sync"
	"sync/atomic"
)

// Queue holds the pending slices of a render pass.
//
// The lifecycle is strict: the queue is populated with Push before any
// worker starts, drained with Pop by many workers concurrently, and
// abandoned (remaining slices discarded) when a pass is canceled.
// Removal order is last-in-first-out; slices are independent, so order
// affects nothing but the sequence in which regions fill in.
//
// Thread safety: Pop is safe for concurrent use and never returns the
// same slice twice. Push is not synchronized with Pop; all pushes must
// happen before the first pop.
type Queue struct {
	mu     sync.Mutex
	slices []Slice

	// remaining mirrors len(slices) so progress can be sampled without
	// taking the queue lock. A reader racing Pop may see a stale value;
	// that only shifts a progress percentage, never correctness.
	remaining atomic.Int64
}

// NewQueue returns an empty queue pre-sized for capacity slices.
func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{slices: make([]Slice, 0, capacity)}
}

// Push appends one pending slice.
func (q *Queue) Push(s Slice) {
	q.mu.Lock()
	q.slices = append(q.slices, s)
	q.mu.Unlock()
	q.remaining.Add(1)
}

// Pop removes and returns one pending slice. The second result is
// false when no slices remain.
func (q *Queue) Pop() (Slice, bool) {
	q.mu.Lock()
	n := len(q.slices)
	if n == 0 {
		q.mu.Unlock()
		return Slice{}, false
	}
	s := q.slices[n-1]
	q.slices = q.slices[:n-1]
	q.mu.Unlock()
	q.remaining.Add(-1)
	return s, true
}

// Remaining reports the number of unclaimed slices without taking the
// queue lock.
func (q *Queue) Remaining() int {
	return int(q.remaining.Load())
}
