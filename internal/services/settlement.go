package services

import (
	"context"
	"fmt"
	"time"

	"github.com/LIN0304/entropy-lottery/internal/models"
	"github.com/LIN0304/entropy-lottery/internal/repositories"
	"github.com/LIN0304/entropy-lottery/internal/utils"
	"github.com/LIN0304/entropy-lottery/pkg/treasury"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/exp/slog"
)

// SettlementExecutor turns a fulfilled draw into a completed round: it picks
// the winner, splits the prize, derives the reward traits, pays out and
// records the permanent artifacts. Runs under the LotteryService lock.
type SettlementExecutor struct {
	gateway    treasury.Gateway
	winnerRepo repositories.WinnerRepository
	tokenRepo  repositories.RewardTokenRepository
	feeBps     int64

	// nextTokenID is the monotonic token counter, seeded from storage at
	// startup.
	nextTokenID uint64
}

// NewSettlementExecutor creates a new SettlementExecutor
func NewSettlementExecutor(gateway treasury.Gateway, winnerRepo repositories.WinnerRepository, tokenRepo repositories.RewardTokenRepository, feeBps int64) *SettlementExecutor {
	return &SettlementExecutor{
		gateway:    gateway,
		winnerRepo: winnerRepo,
		tokenRepo:  tokenRepo,
		feeBps:     feeBps,
		nextTokenID: 1,
	}
}

// SeedTokenCounter resumes the token counter above the highest minted id.
func (e *SettlementExecutor) SeedTokenCounter(maxTokenID uint64) {
	e.nextTokenID = maxTokenID + 1
}

// Settle completes the round for a pool whose randomness request was just
// fulfilled. The winner payout happens before any bookkeeping mutation: if
// the transfer fails the whole settlement fails and the pool is left
// untouched (still DRAWING), so a redelivery of the same request id can
// retry. Persistence of the winner record and token happens after the
// transfer and is logged as critical on failure rather than repeated, since
// the money has already moved.
func (e *SettlementExecutor) Settle(ctx context.Context, pool *models.LotteryPool, requestID uint64, randomValue common.Hash) (*models.WinnerRecord, *models.RewardToken, error) {
	participants := pool.CurrentParticipants
	if participants == 0 {
		return nil, nil, fmt.Errorf("cannot settle tier %s: round has no participants", pool.Tier)
	}

	seed := new(uint256.Int).SetBytes(randomValue.Bytes())

	// Winner index is seed mod K. Modulo-biased for arbitrary K; tolerated
	// because participant counts are small.
	winnerIndex := modWord(seed, uint64(participants))
	winner := pool.Participants[winnerIndex]

	protocolFee, payout := SplitPrize(pool.TotalPrize, e.feeBps)
	attributes := DeriveAttributes(seed, pool.Tier)

	if err := e.gateway.Credit(ctx, winner, payout); err != nil {
		slog.Error("Prize payout failed, settlement aborted", "error", err,
			"tier", pool.Tier.String(), "round", pool.Round, "requestId", requestID,
			"winner", utils.MaskAddress(winner), "payout", payout.String())
		return nil, nil, fmt.Errorf("prize payout failed: %w", err)
	}

	tokenID := e.nextTokenID
	e.nextTokenID++

	now := time.Now()
	token := &models.RewardToken{
		TokenID:    tokenID,
		Owner:      winner.Hex(),
		Tier:       pool.Tier.String(),
		Round:      pool.Round,
		Attributes: attributes,
	}
	record := &models.WinnerRecord{
		Tier:         pool.Tier.String(),
		Round:        pool.Round,
		RequestID:    requestID,
		Winner:       winner.Hex(),
		WinnerIndex:  winnerIndex,
		Participants: participants,
		TotalPrize:   pool.TotalPrize.String(),
		ProtocolFee:  protocolFee.String(),
		Payout:       payout.String(),
		RandomSeed:   randomValue.Hex(),
		TokenID:      tokenID,
		SettledAt:    now,
	}

	if err := e.tokenRepo.Create(ctx, token); err != nil {
		slog.Error("CRITICAL: failed to persist minted reward token", "error", err,
			"tokenId", tokenID, "winner", utils.MaskAddress(winner))
	}
	if err := e.winnerRepo.Create(ctx, record); err != nil {
		slog.Error("CRITICAL: failed to persist winner record", "error", err,
			"tier", pool.Tier.String(), "round", pool.Round, "requestId", requestID)
	}

	slog.Info("Winner selected", "tier", pool.Tier.String(), "round", pool.Round,
		"winner", utils.MaskAddress(winner), "winnerIndex", winnerIndex,
		"payout", payout.String(), "protocolFee", protocolFee.String(), "tokenId", tokenID)
	return record, token, nil
}
