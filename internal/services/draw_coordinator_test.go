package services

import (
	"context"
	"math/big"
	"testing"

	"github.com/LIN0304/entropy-lottery/internal/models"
	"github.com/LIN0304/entropy-lottery/pkg/entropy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T) (*DrawCoordinator, *PoolRegistry) {
	t.Helper()
	registry, err := NewPoolRegistry(testLotteryConfig())
	require.NoError(t, err)
	oracle := entropy.NewClient("", "", true)
	return NewDrawCoordinator(registry, oracle, addr(0xAA)), registry
}

func TestDrawCoordinator(t *testing.T) {
	ctx := context.Background()

	t.Run("RejectsEmptyRound", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		_, err := coordinator.InitiateDraw(ctx, models.TierBronze)
		assert.ErrorIs(t, err, ErrBelowQuorum)
	})

	t.Run("InitiateAndResolve", func(t *testing.T) {
		coordinator, registry := newTestCoordinator(t)
		pool, err := registry.Enter(models.TierBronze, addr(1), big.NewInt(1000))
		require.NoError(t, err)

		requestID, err := coordinator.InitiateDraw(ctx, models.TierBronze)
		require.NoError(t, err)
		require.NotNil(t, pool.PendingRequestID)
		assert.Equal(t, requestID, *pool.PendingRequestID)
		assert.Equal(t, models.PoolStatusDrawing, pool.Status())

		t.Run("SecondDrawBlocked", func(t *testing.T) {
			_, err := coordinator.InitiateDraw(ctx, models.TierBronze)
			assert.ErrorIs(t, err, ErrDrawInProgress)
		})

		tier, ok := coordinator.ResolveRequest(requestID)
		require.True(t, ok)
		assert.Equal(t, models.TierBronze, tier)

		_, ok = coordinator.ResolveRequest(requestID + 1)
		assert.False(t, ok, "an id no pool is waiting on must not resolve")

		t.Run("StaleAfterReset", func(t *testing.T) {
			coordinator.ClearRequest(requestID)
			registry.Reset(models.TierBronze)
			_, ok := coordinator.ResolveRequest(requestID)
			assert.False(t, ok)
		})
	})

	t.Run("IndependentTierDraws", func(t *testing.T) {
		coordinator, registry := newTestCoordinator(t)
		_, err := registry.Enter(models.TierBronze, addr(1), big.NewInt(1000))
		require.NoError(t, err)
		_, err = registry.Enter(models.TierSilver, addr(1), big.NewInt(5000))
		require.NoError(t, err)

		bronzeID, err := coordinator.InitiateDraw(ctx, models.TierBronze)
		require.NoError(t, err)
		silverID, err := coordinator.InitiateDraw(ctx, models.TierSilver)
		require.NoError(t, err)
		require.NotEqual(t, bronzeID, silverID)

		tier, ok := coordinator.ResolveRequest(silverID)
		require.True(t, ok)
		assert.Equal(t, models.TierSilver, tier)
	})

	t.Run("RestorePending", func(t *testing.T) {
		coordinator, registry := newTestCoordinator(t)
		pool, err := registry.Enter(models.TierSilver, addr(1), big.NewInt(5000))
		require.NoError(t, err)
		requestID := uint64(41)
		pool.PendingRequestID = &requestID

		// A coordinator built fresh over restored pools must still resolve
		coordinator.RestorePending()
		tier, ok := coordinator.ResolveRequest(requestID)
		require.True(t, ok)
		assert.Equal(t, models.TierSilver, tier)
	})
}
