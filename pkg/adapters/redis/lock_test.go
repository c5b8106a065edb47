package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/buddy/pkg/adapters/redis"
	"github.com/aretw0/buddy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_SecondHolderWaits(t *testing.T) {
	q, _ := setupQueue(t)
	locker := q.Locker()
	ctx := context.Background()

	_, unlock, err := locker.Lock(ctx, "consumer", time.Second)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, _, err = locker.Lock(waitCtx, "consumer", time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	acquired := make(chan error, 1)
	go func() {
		_, unlock2, err := locker.Lock(ctx, "consumer", time.Second)
		if err == nil {
			err = unlock2(ctx)
		}
		acquired <- err
	}()

	require.NoError(t, unlock(ctx))
	select {
	case err := <-acquired:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("second holder never acquired the released lock")
	}
}

func TestLocker_RefreshKeepsLockAlive(t *testing.T) {
	q, mr := setupQueue(t)
	ctx := context.Background()

	held, unlock, err := q.Locker().Lock(ctx, "consumer", 150*time.Millisecond)
	require.NoError(t, err)

	key := q.Key() + ":lock:consumer"
	// miniredis only expires keys when its clock is advanced. Jump well past the original
	// 150ms deadline in steps; the refresh resets the TTL between steps.
	for range 5 {
		mr.FastForward(100 * time.Millisecond)
		require.True(t, mr.Exists(key))
		time.Sleep(100 * time.Millisecond)
	}

	require.NoError(t, held.Err(), "a refreshed lock is not lost")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists(key))
	assert.ErrorIs(t, held.Err(), context.Canceled)
	assert.NotErrorIs(t, context.Cause(held), ports.ErrLockLost)
	assert.NoError(t, unlock(ctx), "unlock is idempotent")
}

func TestLocker_ExpiredHolderReleases(t *testing.T) {
	q, mr := setupQueue(t)
	ctx := context.Background()

	key := q.Key() + ":lock:consumer"
	require.NoError(t, mr.Set(key, "crashed-holder"))
	mr.SetTTL(key, 200*time.Millisecond)

	mr.FastForward(time.Second)
	_, unlock, err := q.Locker().Lock(ctx, "consumer", time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}

func TestLocker_UnlockDoesNotStealForeignLock(t *testing.T) {
	q, mr := setupQueue(t)
	ctx := context.Background()
	key := q.Key() + ":lock:consumer"

	_, unlock, err := q.Locker().Lock(ctx, "consumer", time.Second)
	require.NoError(t, err)

	require.NoError(t, mr.Set(key, "someone-else"))
	require.NoError(t, unlock(ctx))

	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestLocker_InvalidTTL(t *testing.T) {
	q, _ := setupQueue(t)
	_, _, err := q.Locker().Lock(context.Background(), "consumer", 0)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)
}

func TestLocker_TakenOverLockCancelsHolder(t *testing.T) {
	q, mr := setupQueue(t)
	ctx := context.Background()
	key := q.Key() + ":lock:consumer"

	held, unlock, err := q.Locker().Lock(ctx, "consumer", 150*time.Millisecond)
	require.NoError(t, err)
	defer unlock(ctx)

	require.NoError(t, mr.Set(key, "someone-else"))
	select {
	case <-held.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("holder kept the lock after another token took it")
	}
	assert.ErrorIs(t, context.Cause(held), ports.ErrLockLost)

	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got, "the refresh never overwrites the new holder")
}

func TestLocker_ExpiredLockCancelsHolder(t *testing.T) {
	q, mr := setupQueue(t)
	ctx := context.Background()

	held, unlock, err := q.Locker().Lock(ctx, "consumer", 300*time.Millisecond)
	require.NoError(t, err)
	defer unlock(ctx)

	mr.FastForward(time.Second)
	assert.Eventually(t, func() bool { return held.Err() != nil }, 2*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, context.Cause(held), ports.ErrLockLost)
}
