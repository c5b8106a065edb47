package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/buddy/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

var (
	// ErrLockAcquire is returned when the lock cannot be acquired.
	ErrLockAcquire = errors.New("failed to acquire distributed lock")
)

// RetryInterval is the pause between acquisition attempts while another holder has the lock.
var RetryInterval = 100 * time.Millisecond

const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

const refreshScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end`

// Locker implements ports.DistributedLocker using Redis.
type Locker struct {
	client *backend.Client
	prefix string
}

var _ ports.DistributedLocker = (*Locker)(nil)

// NewLocker creates a new Redis locker. Keys are stored as prefix + "lock:" + key.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
	}
}

// Locker returns a locker sharing the queue's client, namespaced under its key.
func (q *Queue) Locker() *Locker {
	return NewLocker(q.client, q.key+":")
}

// Lock acquires a distributed lock for the given key using Redis SET NX PX.
// While held, the TTL is refreshed every ttl/3. The held context is cancelled with
// ports.ErrLockLost when a refresh finds the key gone or owned by another token, or when
// refreshes have failed for a whole ttl.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (context.Context, ports.UnlockFunc, error) {
	if ttl <= 0 {
		return nil, nil, fmt.Errorf("%w: ttl must be positive", ErrLockAcquire)
	}
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	ticker := time.NewTicker(RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			return nil, nil, fmt.Errorf("%w: %v", ErrLockAcquire, err)
		}
		if ok {
			held, unlock := l.hold(ctx, lockKey, token, ttl)
			return held, unlock, nil
		}
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Locker) hold(ctx context.Context, lockKey, token string, ttl time.Duration) (context.Context, ports.UnlockFunc) {
	held, cancel := context.WithCancelCause(ctx)
	refreshCtx := context.WithoutCancel(ctx)
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		refresh := time.NewTicker(max(ttl/3, time.Millisecond))
		defer refresh.Stop()
		lastOK := time.Now()
		for {
			select {
			case <-stop:
				return
			case <-refresh.C:
				kept, err := l.client.Eval(refreshCtx, refreshScript, []string{lockKey}, token, ttl.Milliseconds()).Int64()
				switch {
				case err == nil && kept == 1:
					lastOK = time.Now()
				case err == nil:
					cancel(fmt.Errorf("%w: %s is held by another token or expired", ports.ErrLockLost, lockKey))
					return
				case time.Since(lastOK) >= ttl:
					cancel(fmt.Errorf("%w: %s not refreshed within %s: %v", ports.ErrLockLost, lockKey, ttl, err))
					return
				}
			}
		}
	}()

	var once sync.Once
	return held, func(ctx context.Context) error {
		var err error
		once.Do(func() {
			close(stop)
			wg.Wait()
			cancel(nil)
			err = l.client.Eval(ctx, unlockScript, []string{lockKey}, token).Err()
		})
		return err
	}
}
