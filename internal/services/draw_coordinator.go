package services

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/LIN0304/entropy-lottery/internal/models"
	"github.com/LIN0304/entropy-lottery/pkg/entropy"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/exp/slog"
)

// DrawCoordinator runs the request half of the draw protocol: it binds a
// commitment to the current round, submits the randomness request and
// records the returned request id on the pool. The callback half resolves
// request ids back to tiers through ResolveRequest. Methods are called under
// the LotteryService lock.
type DrawCoordinator struct {
	registry *PoolRegistry
	oracle   entropy.Client
	provider common.Address

	// pending maps in-flight request ids to the tier that owns them.
	pending map[uint64]models.Tier
}

// NewDrawCoordinator creates a new DrawCoordinator
func NewDrawCoordinator(registry *PoolRegistry, oracle entropy.Client, provider common.Address) *DrawCoordinator {
	return &DrawCoordinator{
		registry: registry,
		oracle:   oracle,
		provider: provider,
		pending:  make(map[uint64]models.Tier),
	}
}

// Provider returns the configured oracle provider identity.
func (c *DrawCoordinator) Provider() common.Address {
	return c.provider
}

// InitiateDraw submits a randomness request for the tier's current round and
// stores the returned request id, moving the pool to DRAWING. Valid only
// when no request is already pending and the round has participants.
func (c *DrawCoordinator) InitiateDraw(ctx context.Context, tier models.Tier) (uint64, error) {
	pool, err := c.registry.Pool(tier)
	if err != nil {
		return 0, err
	}
	if pool.PendingRequestID != nil {
		return 0, ErrDrawInProgress
	}
	if pool.CurrentParticipants == 0 {
		return 0, ErrBelowQuorum
	}

	commitment, err := roundCommitment(pool)
	if err != nil {
		return 0, fmt.Errorf("failed to compute round commitment: %w", err)
	}

	fee, err := c.oracle.GetFee(ctx, c.provider)
	if err != nil {
		return 0, fmt.Errorf("failed to quote oracle fee: %w", err)
	}

	requestID, err := c.oracle.RequestRandomness(ctx, c.provider, commitment, fee)
	if err != nil {
		return 0, fmt.Errorf("failed to request randomness: %w", err)
	}

	pool.PendingRequestID = &requestID
	c.pending[requestID] = tier

	slog.Info("Draw initiated", "tier", tier.String(), "round", pool.Round,
		"requestId", requestID, "participants", pool.CurrentParticipants,
		"oracleFee", fee.String())
	return requestID, nil
}

// ResolveRequest maps a delivered request id back to its tier. The pool's
// stored id must equal the delivered one; a mismatch (stale, duplicate or
// fabricated delivery) resolves nothing. Scans each tier so an entry missing
// from the pending table (e.g. restored from a snapshot) is still found.
func (c *DrawCoordinator) ResolveRequest(requestID uint64) (models.Tier, bool) {
	if tier, ok := c.pending[requestID]; ok {
		if pool, err := c.registry.Pool(tier); err == nil &&
			pool.PendingRequestID != nil && *pool.PendingRequestID == requestID {
			return tier, true
		}
		delete(c.pending, requestID)
	}
	for _, pool := range c.registry.Pools() {
		if pool.PendingRequestID != nil && *pool.PendingRequestID == requestID {
			return pool.Tier, true
		}
	}
	return 0, false
}

// ClearRequest drops a settled request from the pending table.
func (c *DrawCoordinator) ClearRequest(requestID uint64) {
	delete(c.pending, requestID)
}

// RestorePending rebuilds the pending table from the pools' stored request
// ids after a snapshot restore.
func (c *DrawCoordinator) RestorePending() {
	for _, pool := range c.registry.Pools() {
		if pool.PendingRequestID != nil {
			c.pending[*pool.PendingRequestID] = pool.Tier
		}
	}
}

// roundCommitment derives the value bound to the randomness request. It
// mixes the clock, fresh local entropy, the tier, the round and the
// participant count, tying the request to this exact round and deterring
// precomputation of the outcome.
func roundCommitment(pool *models.LotteryPool) (common.Hash, error) {
	var local [32]byte
	if _, err := rand.Read(local[:]); err != nil {
		return common.Hash{}, err
	}

	buf := make([]byte, 0, 64)
	buf = binary.BigEndian.AppendUint64(buf, uint64(time.Now().UnixNano()))
	buf = append(buf, local[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(pool.Tier))
	buf = binary.BigEndian.AppendUint64(buf, pool.Round)
	buf = binary.BigEndian.AppendUint64(buf, uint64(pool.CurrentParticipants))
	return crypto.Keccak256Hash(buf), nil
}
