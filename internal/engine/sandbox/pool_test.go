package sandbox

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAcquireRelease(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 2)
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()

	runtime, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pool.Stats()["in_use"])

	out := runtime.Execute(ctx, "return 42")
	assert.Equal(t, int64(42), out.Value)

	require.NoError(t, pool.Release(runtime))
	assert.Equal(t, 0, pool.Stats()["in_use"])
}

func TestPoolExecute(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 2)
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		out := pool.Execute(ctx, "return Math.sqrt(16)")
		require.Equal(t, OutcomeValue, out.Kind)
		assert.Equal(t, int64(4), out.Value)
	}
}

func TestPoolIsolatesRuns(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 1)
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()
	pool.Execute(ctx, "globalThis.leak = 1")
	out := pool.Execute(ctx, "return typeof leak")
	assert.Equal(t, "undefined", out.Value)
}

func TestPoolHoldsRuntimeForDeferredWork(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 1)
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()
	out := pool.Execute(ctx, "setTimeout(() => {}, 0)")
	require.NotNil(t, out.Deferred)
	assert.Equal(t, 0, pool.Stats()["available"])

	out.Deferred.Run(ctx, nil)
	assert.Equal(t, 1, pool.Stats()["available"])
}

func TestPoolClosed(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 1)
	require.NoError(t, err)
	require.NoError(t, pool.Close())

	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)

	out := pool.Execute(context.Background(), "return 1")
	assert.Equal(t, OutcomeFailed, out.Kind)
	assert.Contains(t, out.Err.Message, "closed")
}

func TestPoolConcurrentExecute(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 4)
	require.NoError(t, err)
	defer pool.Close()

	var wg sync.WaitGroup
	results := make([]*Outcome, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = pool.Execute(context.Background(), "return 6 * 7")
		}(i)
	}
	wg.Wait()

	for _, out := range results {
		assert.Equal(t, int64(42), out.Value)
	}
}
