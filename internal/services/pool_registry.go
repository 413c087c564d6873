package services

import (
	"fmt"
	"math/big"

	"github.com/LIN0304/entropy-lottery/internal/config"
	"github.com/LIN0304/entropy-lottery/internal/models"
	"github.com/ethereum/go-ethereum/common"
)

// PoolRegistry owns one LotteryPool per tier and enforces the tier-local
// invariants. It is not safe for concurrent use on its own: every method is
// called under the LotteryService single-writer lock.
type PoolRegistry struct {
	pools map[models.Tier]*models.LotteryPool
}

// NewPoolRegistry builds the tier-indexed pool map from configuration.
func NewPoolRegistry(cfg *config.LotteryConfig) (*PoolRegistry, error) {
	pools := make(map[models.Tier]*models.LotteryPool)
	for _, tier := range models.AllTiers() {
		tc := cfg.TierFor(tier.String())
		entryFee, ok := new(big.Int).SetString(tc.EntryFee, 10)
		if !ok || entryFee.Sign() <= 0 {
			return nil, fmt.Errorf("invalid entry fee %q for tier %s", tc.EntryFee, tier)
		}
		if tc.MaxParticipants < 2 || tc.MinParticipants < 2 || tc.MinParticipants > tc.MaxParticipants {
			return nil, fmt.Errorf("invalid participant bounds for tier %s", tier)
		}
		pools[tier] = &models.LotteryPool{
			Tier:            tier,
			EntryFee:        entryFee,
			MaxParticipants: tc.MaxParticipants,
			MinParticipants: tc.MinParticipants,
			TotalPrize:      new(big.Int),
			Participants:    []common.Address{},
			Entries:         make(map[common.Address]*big.Int),
			IsActive:        tc.Active,
			Round:           1,
		}
	}
	return &PoolRegistry{pools: pools}, nil
}

// Pool returns the pool for a tier.
func (r *PoolRegistry) Pool(tier models.Tier) (*models.LotteryPool, error) {
	pool, ok := r.pools[tier]
	if !ok {
		return nil, fmt.Errorf("no pool configured for tier %s", tier)
	}
	return pool, nil
}

// Pools returns every pool in tier-ordinal order.
func (r *PoolRegistry) Pools() []*models.LotteryPool {
	pools := make([]*models.LotteryPool, 0, len(r.pools))
	for _, tier := range models.AllTiers() {
		if pool, ok := r.pools[tier]; ok {
			pools = append(pools, pool)
		}
	}
	return pools
}

// Enter validates and records one entry. The caller has already collected
// the entry fee; on any error the pool is untouched.
func (r *PoolRegistry) Enter(tier models.Tier, entrant common.Address, paidAmount *big.Int) (*models.LotteryPool, error) {
	pool, err := r.Pool(tier)
	if err != nil {
		return nil, err
	}
	if !pool.IsActive {
		return nil, ErrPoolInactive
	}
	if paidAmount.Cmp(pool.EntryFee) != 0 {
		return nil, ErrWrongFee
	}
	if pool.CurrentParticipants >= pool.MaxParticipants {
		return nil, ErrPoolFull
	}
	if pool.HasEntered(entrant) {
		return nil, ErrAlreadyEntered
	}

	pool.Participants = append(pool.Participants, entrant)
	pool.Entries[entrant] = new(big.Int).Set(paidAmount)
	pool.CurrentParticipants++
	pool.TotalPrize.Add(pool.TotalPrize, paidAmount)
	return pool, nil
}

// RemoveLastEntry undoes the most recent entry of a round. Used only to
// unwind the bookkeeping of an entry whose side effects could not complete.
func (r *PoolRegistry) RemoveLastEntry(tier models.Tier, entrant common.Address) {
	pool, err := r.Pool(tier)
	if err != nil || pool.CurrentParticipants == 0 {
		return
	}
	last := pool.Participants[len(pool.Participants)-1]
	if last != entrant {
		return
	}
	pool.Participants = pool.Participants[:len(pool.Participants)-1]
	pool.TotalPrize.Sub(pool.TotalPrize, pool.Entries[entrant])
	delete(pool.Entries, entrant)
	pool.CurrentParticipants--
}

// Reset clears the round after a successful settlement: participants,
// entries, total prize and the pending request id. The round counter
// advances so a stale callback can never be confused with the new round.
func (r *PoolRegistry) Reset(tier models.Tier) {
	pool, err := r.Pool(tier)
	if err != nil {
		return
	}
	pool.Participants = []common.Address{}
	pool.Entries = make(map[common.Address]*big.Int)
	pool.CurrentParticipants = 0
	pool.TotalPrize = new(big.Int)
	pool.PendingRequestID = nil
	pool.Round++
}

// SetActive toggles whether a tier accepts entries.
func (r *PoolRegistry) SetActive(tier models.Tier, active bool) (*models.LotteryPool, error) {
	pool, err := r.Pool(tier)
	if err != nil {
		return nil, err
	}
	pool.IsActive = active
	return pool, nil
}

// Restore applies persisted snapshots on top of the configured pools so a
// round in flight (including a pending draw) survives a restart.
func (r *PoolRegistry) Restore(snapshots []*models.PoolSnapshot) {
	for _, snap := range snapshots {
		tier, err := models.ParseTier(snap.Tier)
		if err != nil {
			continue
		}
		if pool, ok := r.pools[tier]; ok {
			pool.ApplySnapshot(snap)
		}
	}
}
