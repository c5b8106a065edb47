package ports

import (
	"context"
	"errors"
	"time"
)

// ErrLockLost is the cancellation cause of a held lock's context once the lock has
// expired or passed to another holder.
var ErrLockLost = errors.New("distributed lock lost")

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for distributed concurrency control.
// It keeps a shared relay down to one display consumer when the ingress and the display
// run as separate processes.
type DistributedLocker interface {
	// Lock blocks until the lock for key is acquired or ctx is done.
	// The holder keeps the lock alive until the returned UnlockFunc is called, which MUST
	// happen; ttl bounds how long a crashed holder blocks the next one.
	// The returned context is derived from ctx. It is cancelled with ErrLockLost as its
	// cause when the lock can no longer be kept, and on unlock.
	Lock(ctx context.Context, key string, ttl time.Duration) (context.Context, UnlockFunc, error)
}
