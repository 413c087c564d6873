package services

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/LIN0304/entropy-lottery/internal/models"
	"github.com/LIN0304/entropy-lottery/internal/repositories"
	"github.com/LIN0304/entropy-lottery/internal/utils"
	"github.com/LIN0304/entropy-lottery/pkg/treasury"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure LotteryServiceImpl implements LotteryService
var _ LotteryService = (*LotteryServiceImpl)(nil)

// LotteryService is the single entry point for every state-changing lottery
// operation plus the read paths the API serves.
type LotteryService interface {
	Enter(ctx context.Context, tier models.Tier, entrant common.Address, referrer *common.Address, paidAmount *big.Int) (*models.LotteryPool, error)
	ManualTrigger(ctx context.Context, tier models.Tier) (uint64, error)
	HandleRandomness(ctx context.Context, requestID uint64, provider common.Address, randomValue common.Hash) (*models.WinnerRecord, error)
	ClaimReferral(ctx context.Context, caller common.Address) (*big.Int, error)
	EmergencyWithdraw(ctx context.Context) (*big.Int, error)
	SetPoolActive(ctx context.Context, tier models.Tier, active bool) (*models.LotteryPool, error)

	GetPool(tier models.Tier) (*models.LotteryPool, error)
	GetPools() []*models.LotteryPool
	GetReferralAccount(address common.Address) *models.ReferralAccount
	HeldBalance() *big.Int
	GetWinners(ctx context.Context, tier string, page, limit int) ([]*models.WinnerRecord, error)
	GetToken(ctx context.Context, tokenID uint64) (*models.RewardToken, error)
	GetTokenMetadata(ctx context.Context, tokenID uint64) (*models.TokenMetadata, error)

	Restore(ctx context.Context) error
}

// LotteryServiceImpl orchestrates the registry, coordinator, settlement
// executor and referral ledger under one mutex. Every state-changing
// operation runs to completion while holding mu, which gives the
// single-writer execution model the settlement logic relies on.
type LotteryServiceImpl struct {
	mu sync.Mutex

	registry   *PoolRegistry
	draws      *DrawCoordinator
	settlement *SettlementExecutor
	referrals  *ReferralLedger
	gateway    treasury.Gateway

	poolRepo     repositories.PoolSnapshotRepository
	referralRepo repositories.ReferralRepository
	winnerRepo   repositories.WinnerRepository
	tokenRepo    repositories.RewardTokenRepository
	eventRepo    repositories.EventRepository

	owner       common.Address
	feeBps      int64
	referralBps int64

	// held tracks the escrow balance this service controls at the treasury:
	// entry fees in, payouts, referral claims and sweeps out.
	held *big.Int
}

// NewLotteryService creates a new LotteryServiceImpl
func NewLotteryService(
	registry *PoolRegistry,
	draws *DrawCoordinator,
	settlement *SettlementExecutor,
	referrals *ReferralLedger,
	gateway treasury.Gateway,
	poolRepo repositories.PoolSnapshotRepository,
	referralRepo repositories.ReferralRepository,
	winnerRepo repositories.WinnerRepository,
	tokenRepo repositories.RewardTokenRepository,
	eventRepo repositories.EventRepository,
	owner common.Address,
	feeBps, referralBps int64,
) *LotteryServiceImpl {
	return &LotteryServiceImpl{
		registry:     registry,
		draws:        draws,
		settlement:   settlement,
		referrals:    referrals,
		gateway:      gateway,
		poolRepo:     poolRepo,
		referralRepo: referralRepo,
		winnerRepo:   winnerRepo,
		tokenRepo:    tokenRepo,
		eventRepo:    eventRepo,
		owner:        owner,
		feeBps:       feeBps,
		referralBps:  referralBps,
		held:         new(big.Int),
	}
}

// Restore reloads durable state at startup: pool round snapshots (so a
// pending draw survives a restart and its callback still settles), the
// referral ledger mirror and the token counter. The escrow view is rebuilt
// from restored pool prizes plus unclaimed referral balances.
func (s *LotteryServiceImpl) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshots, err := s.poolRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pool snapshots: %w", err)
	}
	s.registry.Restore(snapshots)
	s.draws.RestorePending()

	accounts, err := s.referralRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load referral accounts: %w", err)
	}
	s.referrals.Restore(accounts)

	maxTokenID, err := s.tokenRepo.MaxTokenID(ctx)
	if err != nil {
		return fmt.Errorf("failed to resume token counter: %w", err)
	}
	s.settlement.SeedTokenCounter(maxTokenID)

	s.held.SetInt64(0)
	for _, pool := range s.registry.Pools() {
		s.held.Add(s.held, pool.TotalPrize)
	}
	for _, account := range accounts {
		if pending, ok := new(big.Int).SetString(account.Pending, 10); ok {
			s.held.Add(s.held, pending)
		}
	}

	slog.Info("Lottery state restored", "pools", len(snapshots),
		"referralAccounts", len(accounts), "maxTokenId", maxTokenID)
	return nil
}

// Enter records one entry for a tier. The entry fee is collected through the
// treasury; if the collection fails the bookkeeping is unwound so the whole
// operation is a no-op. Filling the last slot initiates the draw as part of
// the same atomic operation.
func (s *LotteryServiceImpl) Enter(ctx context.Context, tier models.Tier, entrant common.Address, referrer *common.Address, paidAmount *big.Int) (*models.LotteryPool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, err := s.registry.Enter(tier, entrant, paidAmount)
	if err != nil {
		return nil, err
	}

	if err := s.gateway.Debit(ctx, entrant, paidAmount); err != nil {
		s.registry.RemoveLastEntry(tier, entrant)
		slog.Warn("Entry fee collection failed", "error", err,
			"tier", tier.String(), "entrant", utils.MaskAddress(entrant))
		return nil, fmt.Errorf("entry fee collection failed: %w", err)
	}
	s.held.Add(s.held, paidAmount)

	slog.Info("Entry recorded", "tier", tier.String(), "round", pool.Round,
		"entrant", utils.MaskAddress(entrant), "participants", pool.CurrentParticipants,
		"totalPrize", pool.TotalPrize.String())
	s.emitEvent(ctx, models.EventEntryRecorded, pool, map[string]string{
		"entrant":    entrant.Hex(),
		"paidAmount": paidAmount.String(),
	})

	if referrer != nil && s.referrals.Register(entrant, *referrer) {
		bonus := ReferralBonus(paidAmount, s.referralBps)
		s.referrals.Accrue(*referrer, bonus)
		s.persistReferral(ctx, entrant)
		s.persistReferral(ctx, *referrer)
		slog.Info("Referral rewarded", "referrer", utils.MaskAddress(*referrer),
			"referee", utils.MaskAddress(entrant), "bonus", bonus.String())
		s.emitEvent(ctx, models.EventReferralRewarded, pool, map[string]string{
			"referrer": referrer.Hex(),
			"referee":  entrant.Hex(),
			"bonus":    bonus.String(),
		})
	}

	if pool.CurrentParticipants == pool.MaxParticipants {
		requestID, err := s.draws.InitiateDraw(ctx, tier)
		if err != nil {
			// The entry stands; the pool is full and a manual trigger can
			// re-attempt the draw once the oracle is reachable again.
			slog.Error("Automatic draw initiation failed", "error", err, "tier", tier.String())
		} else {
			s.emitEvent(ctx, models.EventDrawInitiated, pool, map[string]string{
				"requestId": fmt.Sprintf("%d", requestID),
				"trigger":   "capacity",
			})
		}
	}

	s.persistPool(ctx, pool)
	return pool, nil
}

// ManualTrigger initiates a draw before capacity is reached, provided the
// quorum is met and no draw is already pending.
func (s *LotteryServiceImpl) ManualTrigger(ctx context.Context, tier models.Tier) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, err := s.registry.Pool(tier)
	if err != nil {
		return 0, err
	}
	if pool.CurrentParticipants < pool.MinParticipants {
		return 0, ErrBelowQuorum
	}
	if pool.PendingRequestID != nil {
		return 0, ErrDrawInProgress
	}

	requestID, err := s.draws.InitiateDraw(ctx, tier)
	if err != nil {
		return 0, err
	}
	s.emitEvent(ctx, models.EventDrawInitiated, pool, map[string]string{
		"requestId": fmt.Sprintf("%d", requestID),
		"trigger":   "manual",
	})
	s.persistPool(ctx, pool)
	return requestID, nil
}

// HandleRandomness is the oracle's delivery entry point. The request id must
// match a pool's pending id exactly; settlement then runs exactly once and
// the pool reopens only after its reset completes. A replayed delivery finds
// no pending id and fails with ErrUnknownRequest.
func (s *LotteryServiceImpl) HandleRandomness(ctx context.Context, requestID uint64, provider common.Address, randomValue common.Hash) (*models.WinnerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if provider != s.draws.Provider() {
		return nil, ErrUnauthorizedCaller
	}

	tier, ok := s.draws.ResolveRequest(requestID)
	if !ok {
		return nil, ErrUnknownRequest
	}
	pool, err := s.registry.Pool(tier)
	if err != nil {
		return nil, err
	}

	record, _, err := s.settlement.Settle(ctx, pool, requestID, randomValue)
	if err != nil {
		// Pool stays DRAWING with the request still pending, so a
		// redelivery of the same id retries the settlement.
		return nil, err
	}

	_, payout := SplitPrize(pool.TotalPrize, s.feeBps)
	s.held.Sub(s.held, payout)

	s.draws.ClearRequest(requestID)
	s.registry.Reset(tier)
	s.persistPool(ctx, pool)
	s.emitEvent(ctx, models.EventWinnerSelected, pool, map[string]string{
		"requestId": fmt.Sprintf("%d", requestID),
		"winner":    record.Winner,
		"payout":    record.Payout,
		"tokenId":   fmt.Sprintf("%d", record.TokenID),
	})
	return record, nil
}

// ClaimReferral pays out a referrer's pending balance. The balance is zeroed
// before the transfer; a failed transfer restores it, leaving the claim a
// no-op.
func (s *LotteryServiceImpl) ClaimReferral(ctx context.Context, caller common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	amount, err := s.referrals.Claim(caller)
	if err != nil {
		return nil, err
	}

	if err := s.gateway.Credit(ctx, caller, amount); err != nil {
		s.referrals.Accrue(caller, amount)
		slog.Error("Referral claim transfer failed", "error", err,
			"caller", utils.MaskAddress(caller), "amount", amount.String())
		return nil, fmt.Errorf("referral payout failed: %w", err)
	}

	s.held.Sub(s.held, amount)
	s.persistReferral(ctx, caller)
	slog.Info("Referral rewards claimed", "caller", utils.MaskAddress(caller), "amount", amount.String())
	return amount, nil
}

// EmergencyWithdraw sweeps the entire tracked escrow balance to the owner.
// Last-resort operation: it does not touch pool state.
func (s *LotteryServiceImpl) EmergencyWithdraw(ctx context.Context) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.held.Sign() == 0 {
		return new(big.Int), nil
	}
	amount := new(big.Int).Set(s.held)
	if err := s.gateway.Credit(ctx, s.owner, amount); err != nil {
		return nil, fmt.Errorf("emergency withdraw failed: %w", err)
	}
	s.held.SetInt64(0)
	slog.Warn("Emergency withdraw executed", "owner", utils.MaskAddress(s.owner), "amount", amount.String())
	return amount, nil
}

// SetPoolActive toggles whether a tier accepts entries.
func (s *LotteryServiceImpl) SetPoolActive(ctx context.Context, tier models.Tier, active bool) (*models.LotteryPool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, err := s.registry.SetActive(tier, active)
	if err != nil {
		return nil, err
	}
	s.persistPool(ctx, pool)
	return pool, nil
}

// GetPool returns the live pool for a tier.
func (s *LotteryServiceImpl) GetPool(tier models.Tier) (*models.LotteryPool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Pool(tier)
}

// GetPools returns every pool.
func (s *LotteryServiceImpl) GetPools() []*models.LotteryPool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Pools()
}

// GetReferralAccount returns the ledger view for an address.
func (s *LotteryServiceImpl) GetReferralAccount(address common.Address) *models.ReferralAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.referrals.Account(address)
}

// HeldBalance returns the tracked escrow balance.
func (s *LotteryServiceImpl) HeldBalance() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.held)
}

// GetWinners returns winner records, optionally filtered by tier.
func (s *LotteryServiceImpl) GetWinners(ctx context.Context, tier string, page, limit int) ([]*models.WinnerRecord, error) {
	var (
		records []*models.WinnerRecord
		err     error
	)
	if tier == "" {
		records, err = s.winnerRepo.FindAll(ctx, page, limit)
	} else {
		records, err = s.winnerRepo.FindByTier(ctx, tier, page, limit)
	}
	if err != nil {
		slog.Error("Failed to fetch winner records", "error", err, "tier", tier)
		return nil, fmt.Errorf("failed to retrieve winners: %w", err)
	}
	return records, nil
}

// GetToken returns a minted reward token by id.
func (s *LotteryServiceImpl) GetToken(ctx context.Context, tokenID uint64) (*models.RewardToken, error) {
	return s.tokenRepo.FindByTokenID(ctx, tokenID)
}

// GetTokenMetadata renders the metadata document for a token.
func (s *LotteryServiceImpl) GetTokenMetadata(ctx context.Context, tokenID uint64) (*models.TokenMetadata, error) {
	token, err := s.tokenRepo.FindByTokenID(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return RenderTokenMetadata(token), nil
}

// persistPool writes the round snapshot. Memory is authoritative within the
// process; a failed write is logged, not fatal.
func (s *LotteryServiceImpl) persistPool(ctx context.Context, pool *models.LotteryPool) {
	if err := s.poolRepo.Upsert(ctx, pool.ToSnapshot()); err != nil {
		slog.Error("Failed to persist pool snapshot", "error", err, "tier", pool.Tier.String())
	}
}

// persistReferral mirrors one ledger account, best-effort.
func (s *LotteryServiceImpl) persistReferral(ctx context.Context, address common.Address) {
	if err := s.referralRepo.Upsert(ctx, s.referrals.Account(address)); err != nil {
		slog.Error("Failed to persist referral account", "error", err, "address", utils.MaskAddress(address))
	}
}

// emitEvent stores one observation for external monitoring, best-effort.
func (s *LotteryServiceImpl) emitEvent(ctx context.Context, eventType models.EventType, pool *models.LotteryPool, fields map[string]string) {
	event := &models.LotteryEvent{
		EventID: uuid.NewString(),
		Type:    eventType,
		Fields:  fields,
	}
	if pool != nil {
		event.Tier = pool.Tier.String()
		event.Round = pool.Round
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		slog.Error("Failed to persist lottery event", "error", err, "type", string(eventType))
	}
}
