package credpool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolRejectsEmptyOrInvalidCredentials(t *testing.T) {
	t.Run("no credentials", func(t *testing.T) {
		_, err := NewPool(nil)
		assert.Error(t, err)
	})

	t.Run("non-positive budget", func(t *testing.T) {
		_, err := NewPool([]Credential{{Key: "k1", BudgetPerMinute: 0}})
		assert.Error(t, err)
	})
}

func TestAcquireAlternatesEqualBudgetCredentials(t *testing.T) {
	pool, err := NewPool([]Credential{
		{Key: "k1", BudgetPerMinute: 6000},
		{Key: "k2", BudgetPerMinute: 6000},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	first, err := pool.Acquire(ctx)
	require.NoError(t, err)

	second, err := pool.Acquire(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "equal next-eligible times should still alternate credentials")
}

func TestAcquireFavorsCredentialWithSoonerEligibleInstant(t *testing.T) {
	pool, err := NewPool([]Credential{
		{Key: "fast", BudgetPerMinute: 6000},
		{Key: "slow", BudgetPerMinute: 600},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts := map[string]int{}
	for i := 0; i < 33; i++ {
		key, err := pool.Acquire(ctx)
		require.NoError(t, err)
		counts[key]++
	}

	assert.Greater(t, counts["fast"], counts["slow"]*2,
		"selection should converge toward each credential's own budget instead of collapsing to the smaller one")
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	pool, err := NewPool([]Credential{{Key: "k1", BudgetPerMinute: 1}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatsTracksRequestCounts(t *testing.T) {
	pool, err := NewPool([]Credential{{Key: "k1", BudgetPerMinute: 6000}})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = pool.Acquire(ctx)
	require.NoError(t, err)

	stats := pool.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats[0].RequestsThisMinute)
	assert.Equal(t, int64(1), stats[0].RequestsToday)
}
