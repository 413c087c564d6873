package services

import (
	"math/big"
)

const bpsDenominator = 10000

// SplitPrize divides a pool's accumulated total into protocol fee and winner
// payout. The fee is floored first, so the rounding remainder stays with the
// winner's payout and fee + payout == total holds exactly.
func SplitPrize(totalPrize *big.Int, feeBps int64) (protocolFee, payout *big.Int) {
	protocolFee = new(big.Int).Mul(totalPrize, big.NewInt(feeBps))
	protocolFee.Quo(protocolFee, big.NewInt(bpsDenominator))
	payout = new(big.Int).Sub(totalPrize, protocolFee)
	return protocolFee, payout
}

// ReferralBonus computes the referrer's bonus on a single entry as a
// basis-point share of the paid amount, truncating.
func ReferralBonus(paidAmount *big.Int, bonusBps int64) *big.Int {
	bonus := new(big.Int).Mul(paidAmount, big.NewInt(bonusBps))
	return bonus.Quo(bonus, big.NewInt(bpsDenominator))
}
