package services

import (
	"math/big"

	"github.com/LIN0304/entropy-lottery/internal/models"
	"github.com/ethereum/go-ethereum/common"
)

// ReferralLedger accrues pending bonus balances per referrer and records the
// first-referrer-wins assignment per entrant. Like the pool registry it is
// only ever touched under the LotteryService lock; the Mongo mirror is
// written by the service after each mutation.
type ReferralLedger struct {
	referrerOf map[common.Address]common.Address
	pending    map[common.Address]*big.Int
	referred   map[common.Address]int
}

// NewReferralLedger creates an empty ledger.
func NewReferralLedger() *ReferralLedger {
	return &ReferralLedger{
		referrerOf: make(map[common.Address]common.Address),
		pending:    make(map[common.Address]*big.Int),
		referred:   make(map[common.Address]int),
	}
}

// Register assigns a referrer to an entrant. Write-once: a no-op when the
// entrant already has a referrer or refers themselves. Reports whether the
// assignment was made.
func (l *ReferralLedger) Register(referee, referrer common.Address) bool {
	if referrer == (common.Address{}) || referrer == referee {
		return false
	}
	if _, ok := l.referrerOf[referee]; ok {
		return false
	}
	l.referrerOf[referee] = referrer
	l.referred[referrer]++
	return true
}

// ReferrerOf returns the recorded referrer for an entrant, if any.
func (l *ReferralLedger) ReferrerOf(referee common.Address) (common.Address, bool) {
	referrer, ok := l.referrerOf[referee]
	return referrer, ok
}

// Accrue adds amount to a referrer's pending balance.
func (l *ReferralLedger) Accrue(referrer common.Address, amount *big.Int) {
	if amount.Sign() <= 0 {
		return
	}
	balance, ok := l.pending[referrer]
	if !ok {
		balance = new(big.Int)
		l.pending[referrer] = balance
	}
	balance.Add(balance, amount)
}

// Pending returns a copy of a referrer's pending balance.
func (l *ReferralLedger) Pending(referrer common.Address) *big.Int {
	if balance, ok := l.pending[referrer]; ok {
		return new(big.Int).Set(balance)
	}
	return new(big.Int)
}

// Claim zeroes the pending balance and returns the claimed amount. The
// balance is zeroed before any transfer happens so a re-entrant claim sees
// nothing left; a caller whose transfer fails must Accrue the amount back.
func (l *ReferralLedger) Claim(caller common.Address) (*big.Int, error) {
	balance, ok := l.pending[caller]
	if !ok || balance.Sign() == 0 {
		return nil, ErrNoRewards
	}
	claimed := new(big.Int).Set(balance)
	balance.SetInt64(0)
	return claimed, nil
}

// Account builds the persisted mirror document for an address.
func (l *ReferralLedger) Account(address common.Address) *models.ReferralAccount {
	account := &models.ReferralAccount{
		Address:  address.Hex(),
		Pending:  l.Pending(address).String(),
		Referred: l.referred[address],
	}
	if referrer, ok := l.referrerOf[address]; ok {
		account.Referrer = referrer.Hex()
	}
	return account
}

// Restore loads persisted accounts into the ledger at startup.
func (l *ReferralLedger) Restore(accounts []*models.ReferralAccount) {
	for _, account := range accounts {
		addr := common.HexToAddress(account.Address)
		if account.Referrer != "" {
			l.referrerOf[addr] = common.HexToAddress(account.Referrer)
		}
		if account.Referred > 0 {
			l.referred[addr] = account.Referred
		}
		if pending, ok := new(big.Int).SetString(account.Pending, 10); ok && pending.Sign() > 0 {
			l.pending[addr] = pending
		}
	}
}
