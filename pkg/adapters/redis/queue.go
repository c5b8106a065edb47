package redis

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// DefaultQueueKey is the list key used when none is configured.
const DefaultQueueKey = "buddy:relay"

// Queue implements ports.RelayQueue on top of a Redis list (RPUSH / LPOP).
// It lets the ingress and the display consumer run as separate processes.
type Queue struct {
	client *backend.Client
	key    string
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithKey sets the list key.
func WithKey(key string) QueueOption {
	return func(q *Queue) {
		if key != "" {
			q.key = key
		}
	}
}

// NewQueue creates a Redis-backed queue with its own client.
func NewQueue(address, password string, db int, opts ...QueueOption) *Queue {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewQueueFromClient(rdb, opts...)
}

// NewQueueFromClient creates a Redis-backed queue from an existing client.
func NewQueueFromClient(client *backend.Client, opts ...QueueOption) *Queue {
	q := &Queue{
		client: client,
		key:    DefaultQueueKey,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Key returns the list key in use.
func (q *Queue) Key() string {
	return q.key
}

// Push appends item to the tail of the list.
func (q *Queue) Push(ctx context.Context, item string) error {
	if err := q.client.RPush(ctx, q.key, item).Err(); err != nil {
		return fmt.Errorf("failed to push to redis: %w", err)
	}
	return nil
}

// TryPop removes the head of the list without blocking.
func (q *Queue) TryPop(ctx context.Context) (string, bool, error) {
	val, err := q.client.LPop(ctx, q.key).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to pop from redis: %w", err)
	}
	return val, true, nil
}

// Len reports the list length.
func (q *Queue) Len(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read redis list length: %w", err)
	}
	return int(n), nil
}

// Ping checks connectivity, so commands can fail fast at startup.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (q *Queue) Close() error {
	return q.client.Close()
}
