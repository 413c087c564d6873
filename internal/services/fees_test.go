package services

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPrize(t *testing.T) {
	t.Run("StandardSplit", func(t *testing.T) {
		fee, payout := SplitPrize(big.NewInt(10000), 250)
		assert.Equal(t, int64(250), fee.Int64())
		assert.Equal(t, int64(9750), payout.Int64())
	})

	t.Run("FeeIsFlooredFirst", func(t *testing.T) {
		// 10001 * 250 / 10000 = 250.025, floored to 250; the remainder
		// stays with the payout.
		fee, payout := SplitPrize(big.NewInt(10001), 250)
		assert.Equal(t, int64(250), fee.Int64())
		assert.Equal(t, int64(9751), payout.Int64())
	})

	t.Run("TinyPrizeYieldsZeroFee", func(t *testing.T) {
		fee, payout := SplitPrize(big.NewInt(3), 250)
		assert.Equal(t, int64(0), fee.Int64())
		assert.Equal(t, int64(3), payout.Int64())
	})

	t.Run("ZeroBps", func(t *testing.T) {
		fee, payout := SplitPrize(big.NewInt(5000), 0)
		assert.Equal(t, int64(0), fee.Int64())
		assert.Equal(t, int64(5000), payout.Int64())
	})

	t.Run("ConservationHolds", func(t *testing.T) {
		for _, total := range []int64{0, 1, 3, 7, 9999, 10000, 10001, 123456789} {
			fee, payout := SplitPrize(big.NewInt(total), 250)
			sum := new(big.Int).Add(fee, payout)
			assert.Equal(t, total, sum.Int64(), "fee + payout must equal the total for %d", total)
		}
	})
}

func TestReferralBonus(t *testing.T) {
	t.Run("OnePercentOfEntry", func(t *testing.T) {
		entryFee, _ := new(big.Int).SetString("10000000000000000", 10) // 0.01 ether
		bonus := ReferralBonus(entryFee, 100)
		assert.Equal(t, "100000000000000", bonus.String())
	})

	t.Run("Truncates", func(t *testing.T) {
		bonus := ReferralBonus(big.NewInt(99), 100)
		assert.Equal(t, int64(0), bonus.Int64())
	})
}
