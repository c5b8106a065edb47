package ports

import "context"

// RelayQueue carries transform results from any number of producers to one consumer.
// Implementations must be safe for concurrent use, keep FIFO order and never discard items.
type RelayQueue interface {
	// Push appends an item. It must not block waiting for the consumer.
	Push(ctx context.Context, item string) error

	// TryPop removes and returns the oldest item.
	// It never waits: ok is false when the queue is empty.
	TryPop(ctx context.Context) (item string, ok bool, err error)

	// Len reports the number of queued items.
	Len(ctx context.Context) (int, error)
}
