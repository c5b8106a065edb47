package memory

import (
	"context"
	"sync"
)

// compactThreshold bounds how many popped slots are kept before the backing slice is shifted.
const compactThreshold = 64

// Queue implements ports.RelayQueue in memory.
// It is unbounded and safe for concurrent use.
type Queue struct {
	mu    sync.Mutex
	items []string
	head  int
}

// NewQueue creates an empty in-memory queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends item. It never blocks beyond the internal lock.
func (q *Queue) Push(_ context.Context, item string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
	return nil
}

// TryPop removes the oldest item, reporting false when the queue is empty.
func (q *Queue) TryPop(_ context.Context) (string, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.items) {
		return "", false, nil
	}
	item := q.items[q.head]
	q.items[q.head] = ""
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= compactThreshold && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}
	return item, true, nil
}

// Len reports the number of queued items.
func (q *Queue) Len(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head, nil
}
