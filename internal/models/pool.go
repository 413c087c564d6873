package models

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Tier identifies one of the fixed pool configurations.
type Tier int

const (
	TierBronze Tier = iota
	TierSilver
	TierGold
)

// String returns the canonical lowercase tier name used in routes and storage.
func (t Tier) String() string {
	switch t {
	case TierBronze:
		return "bronze"
	case TierSilver:
		return "silver"
	case TierGold:
		return "gold"
	default:
		return "unknown"
	}
}

// ParseTier maps a tier name (case-insensitive) to its enum value.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(s) {
	case "bronze":
		return TierBronze, nil
	case "silver":
		return TierSilver, nil
	case "gold":
		return TierGold, nil
	default:
		return 0, fmt.Errorf("unknown tier %q", s)
	}
}

// AllTiers lists every configured tier in ordinal order.
func AllTiers() []Tier {
	return []Tier{TierBronze, TierSilver, TierGold}
}

// PoolStatus represents the lifecycle phase of a pool's current round
type PoolStatus string

const (
	PoolStatusOpen    PoolStatus = "OPEN"
	PoolStatusFilling PoolStatus = "FILLING"
	PoolStatusDrawing PoolStatus = "DRAWING"
)

// LotteryPool holds the live state of one tier's current round. It is owned
// by the pool registry and only ever mutated under the lottery service's
// single-writer lock.
type LotteryPool struct {
	Tier                Tier                        `json:"tier"`
	EntryFee            *big.Int                    `json:"entryFee"`
	MaxParticipants     int                         `json:"maxParticipants"`
	MinParticipants     int                         `json:"minParticipants"`
	CurrentParticipants int                         `json:"currentParticipants"`
	TotalPrize          *big.Int                    `json:"totalPrize"`
	Participants        []common.Address            `json:"participants"`
	Entries             map[common.Address]*big.Int `json:"-"`
	IsActive            bool                        `json:"isActive"`
	PendingRequestID    *uint64                     `json:"pendingRequestId,omitempty"`
	Round               uint64                      `json:"round"`
}

// Status derives the lifecycle phase from the pool's fields. A non-nil
// PendingRequestID always means a draw is in flight.
func (p *LotteryPool) Status() PoolStatus {
	if p.PendingRequestID != nil {
		return PoolStatusDrawing
	}
	if p.CurrentParticipants > 0 {
		return PoolStatusFilling
	}
	return PoolStatusOpen
}

// HasEntered reports whether the entrant is already listed in the current round.
func (p *LotteryPool) HasEntered(entrant common.Address) bool {
	_, ok := p.Entries[entrant]
	return ok
}

// PoolSnapshot is the MongoDB document form of a LotteryPool round. Amounts
// are stored as decimal strings and addresses as hex so the document stays
// readable and lossless.
type PoolSnapshot struct {
	Tier             string   `bson:"_id"`
	EntryFee         string   `bson:"entryFee"`
	MaxParticipants  int      `bson:"maxParticipants"`
	MinParticipants  int      `bson:"minParticipants"`
	TotalPrize       string   `bson:"totalPrize"`
	Participants     []string `bson:"participants"`
	IsActive         bool     `bson:"isActive"`
	PendingRequestID *uint64  `bson:"pendingRequestId,omitempty"`
	Round            uint64   `bson:"round"`
}

// ToSnapshot converts the live pool into its persistence form.
func (p *LotteryPool) ToSnapshot() *PoolSnapshot {
	participants := make([]string, 0, len(p.Participants))
	for _, addr := range p.Participants {
		participants = append(participants, addr.Hex())
	}
	snap := &PoolSnapshot{
		Tier:            p.Tier.String(),
		EntryFee:        p.EntryFee.String(),
		MaxParticipants: p.MaxParticipants,
		MinParticipants: p.MinParticipants,
		TotalPrize:      p.TotalPrize.String(),
		Participants:    participants,
		IsActive:        p.IsActive,
		Round:           p.Round,
	}
	if p.PendingRequestID != nil {
		id := *p.PendingRequestID
		snap.PendingRequestID = &id
	}
	return snap
}

// ApplySnapshot restores round state from a persisted snapshot. Entry fee and
// capacity stay as configured; only the round-scoped fields are taken from
// the document.
func (p *LotteryPool) ApplySnapshot(snap *PoolSnapshot) {
	p.Participants = p.Participants[:0]
	p.Entries = make(map[common.Address]*big.Int)
	for _, hex := range snap.Participants {
		addr := common.HexToAddress(hex)
		p.Participants = append(p.Participants, addr)
		p.Entries[addr] = new(big.Int).Set(p.EntryFee)
	}
	p.CurrentParticipants = len(p.Participants)
	p.TotalPrize = new(big.Int)
	p.TotalPrize.SetString(snap.TotalPrize, 10)
	p.IsActive = snap.IsActive
	p.Round = snap.Round
	p.PendingRequestID = nil
	if snap.PendingRequestID != nil {
		id := *snap.PendingRequestID
		p.PendingRequestID = &id
	}
}
