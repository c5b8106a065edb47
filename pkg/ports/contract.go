package ports

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRelayQueueContract runs a suite of tests to verify that a RelayQueue implementation
// adheres to the defined interface contract. The queue must start empty.
func RunRelayQueueContract(t *testing.T, q RelayQueue) {
	ctx := context.Background()

	drain := func(t *testing.T) []string {
		t.Helper()
		var out []string
		for {
			item, ok, err := q.TryPop(ctx)
			require.NoError(t, err)
			if !ok {
				return out
			}
			out = append(out, item)
		}
	}

	t.Run("Empty Pop", func(t *testing.T) {
		item, ok, err := q.TryPop(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, item)

		n, err := q.Len(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("FIFO", func(t *testing.T) {
		require.NoError(t, q.Push(ctx, "A"))
		require.NoError(t, q.Push(ctx, "B"))

		first, ok, err := q.TryPop(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "A", first)

		second, ok, err := q.TryPop(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "B", second)

		assert.Empty(t, drain(t))
	})

	t.Run("Empty String Is An Item", func(t *testing.T) {
		require.NoError(t, q.Push(ctx, ""))

		n, err := q.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		item, ok, err := q.TryPop(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "", item)
	})

	t.Run("Interleaved Push Pop", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			require.NoError(t, q.Push(ctx, fmt.Sprintf("item-%d", i)))
			if i%3 == 2 {
				_, ok, err := q.TryPop(ctx)
				require.NoError(t, err)
				require.True(t, ok)
			}
		}
		got := drain(t)
		require.Len(t, got, 7)
		assert.Equal(t, "item-3", got[0])
		assert.Equal(t, "item-9", got[6])
	})

	t.Run("Concurrent Producers", func(t *testing.T) {
		const producers = 50
		var wg sync.WaitGroup
		for i := 0; i < producers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, q.Push(ctx, fmt.Sprintf("p-%d", i)))
			}(i)
		}
		wg.Wait()

		n, err := q.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, producers, n)

		seen := make(map[string]struct{})
		for _, item := range drain(t) {
			seen[item] = struct{}{}
		}
		assert.Len(t, seen, producers, "no lost or duplicated items")
	})
}
