package services

import (
	"math/big"
	"testing"

	"github.com/LIN0304/entropy-lottery/internal/config"
	"github.com/LIN0304/entropy-lottery/internal/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLotteryConfig() *config.LotteryConfig {
	return &config.LotteryConfig{
		FeeBps:      250,
		ReferralBps: 100,
		Bronze:      config.TierConfig{EntryFee: "1000", MaxParticipants: 3, MinParticipants: 2, Active: true},
		Silver:      config.TierConfig{EntryFee: "5000", MaxParticipants: 4, MinParticipants: 2, Active: true},
		Gold:        config.TierConfig{EntryFee: "10000", MaxParticipants: 5, MinParticipants: 3, Active: false},
	}
}

func addr(b byte) common.Address {
	return common.BytesToAddress([]byte{b})
}

func TestPoolRegistry(t *testing.T) {
	t.Run("NewPoolRegistry", func(t *testing.T) {
		registry, err := NewPoolRegistry(testLotteryConfig())
		require.NoError(t, err)

		pools := registry.Pools()
		require.Len(t, pools, 3)
		assert.Equal(t, models.TierBronze, pools[0].Tier)
		assert.Equal(t, models.TierGold, pools[2].Tier)
		assert.Equal(t, uint64(1), pools[0].Round)
		assert.Equal(t, models.PoolStatusOpen, pools[0].Status())
		assert.False(t, pools[2].IsActive)
	})

	t.Run("RejectsInvalidEntryFee", func(t *testing.T) {
		cfg := testLotteryConfig()
		cfg.Silver.EntryFee = "not-a-number"
		_, err := NewPoolRegistry(cfg)
		assert.Error(t, err)

		cfg = testLotteryConfig()
		cfg.Bronze.EntryFee = "0"
		_, err = NewPoolRegistry(cfg)
		assert.Error(t, err)
	})

	t.Run("RejectsInvalidBounds", func(t *testing.T) {
		cfg := testLotteryConfig()
		cfg.Bronze.MinParticipants = 5 // above max of 3
		_, err := NewPoolRegistry(cfg)
		assert.Error(t, err)
	})

	t.Run("Enter", func(t *testing.T) {
		registry, err := NewPoolRegistry(testLotteryConfig())
		require.NoError(t, err)
		fee := big.NewInt(1000)

		pool, err := registry.Enter(models.TierBronze, addr(1), fee)
		require.NoError(t, err)
		assert.Equal(t, 1, pool.CurrentParticipants)
		assert.Equal(t, "1000", pool.TotalPrize.String())
		assert.True(t, pool.HasEntered(addr(1)))
		assert.Equal(t, models.PoolStatusFilling, pool.Status())

		t.Run("WrongFee", func(t *testing.T) {
			_, err := registry.Enter(models.TierBronze, addr(2), big.NewInt(999))
			assert.ErrorIs(t, err, ErrWrongFee)
		})

		t.Run("Duplicate", func(t *testing.T) {
			_, err := registry.Enter(models.TierBronze, addr(1), fee)
			assert.ErrorIs(t, err, ErrAlreadyEntered)
		})

		t.Run("Inactive", func(t *testing.T) {
			_, err := registry.Enter(models.TierGold, addr(1), big.NewInt(10000))
			assert.ErrorIs(t, err, ErrPoolInactive)
		})

		t.Run("Full", func(t *testing.T) {
			_, err := registry.Enter(models.TierBronze, addr(2), fee)
			require.NoError(t, err)
			_, err = registry.Enter(models.TierBronze, addr(3), fee)
			require.NoError(t, err)
			_, err = registry.Enter(models.TierBronze, addr(4), fee)
			assert.ErrorIs(t, err, ErrPoolFull)
		})

		// A failed entry must leave the pool untouched
		assert.Equal(t, "3000", pool.TotalPrize.String())
		assert.Equal(t, 3, pool.CurrentParticipants)
	})

	t.Run("RemoveLastEntry", func(t *testing.T) {
		registry, err := NewPoolRegistry(testLotteryConfig())
		require.NoError(t, err)
		fee := big.NewInt(1000)

		_, err = registry.Enter(models.TierBronze, addr(1), fee)
		require.NoError(t, err)
		pool, err := registry.Enter(models.TierBronze, addr(2), fee)
		require.NoError(t, err)

		// Only the most recent entrant can be unwound
		registry.RemoveLastEntry(models.TierBronze, addr(1))
		assert.Equal(t, 2, pool.CurrentParticipants)

		registry.RemoveLastEntry(models.TierBronze, addr(2))
		assert.Equal(t, 1, pool.CurrentParticipants)
		assert.Equal(t, "1000", pool.TotalPrize.String())
		assert.False(t, pool.HasEntered(addr(2)))
	})

	t.Run("Reset", func(t *testing.T) {
		registry, err := NewPoolRegistry(testLotteryConfig())
		require.NoError(t, err)

		pool, err := registry.Enter(models.TierSilver, addr(1), big.NewInt(5000))
		require.NoError(t, err)
		requestID := uint64(9)
		pool.PendingRequestID = &requestID

		registry.Reset(models.TierSilver)

		assert.Equal(t, 0, pool.CurrentParticipants)
		assert.Empty(t, pool.Participants)
		assert.Equal(t, "0", pool.TotalPrize.String())
		assert.Nil(t, pool.PendingRequestID)
		assert.Equal(t, uint64(2), pool.Round)
		assert.Equal(t, models.PoolStatusOpen, pool.Status())
	})

	t.Run("SnapshotRoundTrip", func(t *testing.T) {
		registry, err := NewPoolRegistry(testLotteryConfig())
		require.NoError(t, err)

		pool, err := registry.Enter(models.TierBronze, addr(1), big.NewInt(1000))
		require.NoError(t, err)
		_, err = registry.Enter(models.TierBronze, addr(2), big.NewInt(1000))
		require.NoError(t, err)
		requestID := uint64(77)
		pool.PendingRequestID = &requestID
		pool.Round = 4

		restored, err := NewPoolRegistry(testLotteryConfig())
		require.NoError(t, err)
		restored.Restore([]*models.PoolSnapshot{pool.ToSnapshot()})

		got, err := restored.Pool(models.TierBronze)
		require.NoError(t, err)
		assert.Equal(t, 2, got.CurrentParticipants)
		assert.Equal(t, "2000", got.TotalPrize.String())
		assert.True(t, got.HasEntered(addr(2)))
		require.NotNil(t, got.PendingRequestID)
		assert.Equal(t, uint64(77), *got.PendingRequestID)
		assert.Equal(t, uint64(4), got.Round)
		assert.Equal(t, models.PoolStatusDrawing, got.Status())
	})
}
