package services

import (
	"context"
	"math/big"
	"testing"

	"github.com/LIN0304/entropy-lottery/internal/config"
	"github.com/LIN0304/entropy-lottery/internal/models"
	"github.com/LIN0304/entropy-lottery/pkg/entropy"
	"github.com/LIN0304/entropy-lottery/pkg/treasury"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// In-memory repository fakes. They mirror the Mongo implementations closely
// enough for the service flows, including the not-found sentinel.

type memPoolRepo struct {
	snaps map[string]*models.PoolSnapshot
}

func newMemPoolRepo() *memPoolRepo {
	return &memPoolRepo{snaps: make(map[string]*models.PoolSnapshot)}
}

func (r *memPoolRepo) Upsert(ctx context.Context, snap *models.PoolSnapshot) error {
	r.snaps[snap.Tier] = snap
	return nil
}

func (r *memPoolRepo) FindByTier(ctx context.Context, tier string) (*models.PoolSnapshot, error) {
	if snap, ok := r.snaps[tier]; ok {
		return snap, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memPoolRepo) FindAll(ctx context.Context) ([]*models.PoolSnapshot, error) {
	snaps := make([]*models.PoolSnapshot, 0, len(r.snaps))
	for _, snap := range r.snaps {
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

type memWinnerRepo struct {
	records []*models.WinnerRecord
}

func (r *memWinnerRepo) Create(ctx context.Context, record *models.WinnerRecord) error {
	r.records = append(r.records, record)
	return nil
}

func (r *memWinnerRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.WinnerRecord, error) {
	return nil, mongo.ErrNoDocuments
}

func (r *memWinnerRepo) FindByTier(ctx context.Context, tier string, page, limit int) ([]*models.WinnerRecord, error) {
	var out []*models.WinnerRecord
	for _, record := range r.records {
		if record.Tier == tier {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *memWinnerRepo) FindByWinner(ctx context.Context, winner string, page, limit int) ([]*models.WinnerRecord, error) {
	var out []*models.WinnerRecord
	for _, record := range r.records {
		if record.Winner == winner {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *memWinnerRepo) FindAll(ctx context.Context, page, limit int) ([]*models.WinnerRecord, error) {
	return r.records, nil
}

func (r *memWinnerRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.records)), nil
}

type memTokenRepo struct {
	tokens map[uint64]*models.RewardToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[uint64]*models.RewardToken)}
}

func (r *memTokenRepo) Create(ctx context.Context, token *models.RewardToken) error {
	r.tokens[token.TokenID] = token
	return nil
}

func (r *memTokenRepo) FindByTokenID(ctx context.Context, tokenID uint64) (*models.RewardToken, error) {
	if token, ok := r.tokens[tokenID]; ok {
		return token, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memTokenRepo) FindByOwner(ctx context.Context, owner string, page, limit int) ([]*models.RewardToken, error) {
	var out []*models.RewardToken
	for _, token := range r.tokens {
		if token.Owner == owner {
			out = append(out, token)
		}
	}
	return out, nil
}

func (r *memTokenRepo) MaxTokenID(ctx context.Context) (uint64, error) {
	var max uint64
	for id := range r.tokens {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (r *memTokenRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.tokens)), nil
}

type memReferralRepo struct {
	accounts map[string]*models.ReferralAccount
}

func newMemReferralRepo() *memReferralRepo {
	return &memReferralRepo{accounts: make(map[string]*models.ReferralAccount)}
}

func (r *memReferralRepo) Upsert(ctx context.Context, account *models.ReferralAccount) error {
	r.accounts[account.Address] = account
	return nil
}

func (r *memReferralRepo) FindByAddress(ctx context.Context, address string) (*models.ReferralAccount, error) {
	if account, ok := r.accounts[address]; ok {
		return account, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memReferralRepo) FindAll(ctx context.Context) ([]*models.ReferralAccount, error) {
	accounts := make([]*models.ReferralAccount, 0, len(r.accounts))
	for _, account := range r.accounts {
		accounts = append(accounts, account)
	}
	return accounts, nil
}

type memEventRepo struct {
	events []*models.LotteryEvent
}

func (r *memEventRepo) Create(ctx context.Context, event *models.LotteryEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *memEventRepo) FindByType(ctx context.Context, eventType models.EventType, page, limit int) ([]*models.LotteryEvent, error) {
	var out []*models.LotteryEvent
	for _, event := range r.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out, nil
}

func (r *memEventRepo) FindAll(ctx context.Context, page, limit int) ([]*models.LotteryEvent, error) {
	return r.events, nil
}

func (r *memEventRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.events)), nil
}

// lotteryHarness wires a full service against the mock oracle, the mock
// treasury gateway and the in-memory repositories.
type lotteryHarness struct {
	svc      *LotteryServiceImpl
	gateway  *treasury.MockGateway
	pools    *memPoolRepo
	winners  *memWinnerRepo
	tokens   *memTokenRepo
	accounts *memReferralRepo
	events   *memEventRepo
	owner    common.Address
	provider common.Address
}

func newLotteryHarness(t *testing.T, cfg *config.LotteryConfig) *lotteryHarness {
	t.Helper()

	h := &lotteryHarness{
		gateway:  treasury.NewMockGateway(),
		pools:    newMemPoolRepo(),
		winners:  &memWinnerRepo{},
		tokens:   newMemTokenRepo(),
		accounts: newMemReferralRepo(),
		events:   &memEventRepo{},
		owner:    addr(0xEE),
		provider: common.HexToAddress("0x52DeaA1c84233F7bb8C8A45baeDE41091c616506"),
	}
	h.rebuild(t, cfg)
	return h
}

// rebuild constructs a fresh service over the harness's existing repositories
// and restores state, simulating a process restart.
func (h *lotteryHarness) rebuild(t *testing.T, cfg *config.LotteryConfig) {
	t.Helper()

	registry, err := NewPoolRegistry(cfg)
	require.NoError(t, err)
	oracle := entropy.NewClient("", "", true)
	draws := NewDrawCoordinator(registry, oracle, h.provider)
	settlement := NewSettlementExecutor(h.gateway, h.winners, h.tokens, cfg.FeeBps)

	h.svc = NewLotteryService(
		registry, draws, settlement, NewReferralLedger(), h.gateway,
		h.pools, h.accounts, h.winners, h.tokens, h.events,
		h.owner, cfg.FeeBps, cfg.ReferralBps,
	)
	require.NoError(t, h.svc.Restore(context.Background()))
}

func (h *lotteryHarness) enter(t *testing.T, tier models.Tier, entrant common.Address, fee int64) *models.LotteryPool {
	t.Helper()
	pool, err := h.svc.Enter(context.Background(), tier, entrant, nil, big.NewInt(fee))
	require.NoError(t, err)
	return pool
}

func TestLotteryServiceFullRound(t *testing.T) {
	ctx := context.Background()
	h := newLotteryHarness(t, testLotteryConfig())

	// Fill bronze to capacity; the third entry triggers the draw.
	h.enter(t, models.TierBronze, addr(1), 1000)
	h.enter(t, models.TierBronze, addr(2), 1000)
	pool := h.enter(t, models.TierBronze, addr(3), 1000)

	require.NotNil(t, pool.PendingRequestID)
	requestID := *pool.PendingRequestID
	assert.Equal(t, models.PoolStatusDrawing, pool.Status())
	assert.Equal(t, "3000", h.svc.HeldBalance().String())

	// Pool is frozen while the draw is pending
	_, err := h.svc.Enter(ctx, models.TierBronze, addr(4), nil, big.NewInt(1000))
	assert.ErrorIs(t, err, ErrPoolFull)

	// 7 mod 3 participants selects index 1
	record, err := h.svc.HandleRandomness(ctx, requestID, h.provider, common.BigToHash(big.NewInt(7)))
	require.NoError(t, err)

	assert.Equal(t, addr(2).Hex(), record.Winner)
	assert.Equal(t, uint64(1), record.WinnerIndex)
	assert.Equal(t, "3000", record.TotalPrize)
	assert.Equal(t, "75", record.ProtocolFee) // 3000 * 250 / 10000
	assert.Equal(t, "2925", record.Payout)
	assert.Equal(t, uint64(1), record.TokenID)
	assert.Equal(t, uint64(1), record.Round)

	// Winner paid 1000 in and got 2925 out
	assert.Equal(t, "1925", h.gateway.Balance(addr(2)).String())
	assert.Equal(t, "-1000", h.gateway.Balance(addr(1)).String())

	// Protocol fee remains in escrow
	assert.Equal(t, "75", h.svc.HeldBalance().String())

	// Pool reopened for the next round
	assert.Equal(t, models.PoolStatusOpen, pool.Status())
	assert.Equal(t, uint64(2), pool.Round)
	assert.Equal(t, 0, pool.CurrentParticipants)

	t.Run("MintedTokenTraits", func(t *testing.T) {
		token, err := h.svc.GetToken(ctx, record.TokenID)
		require.NoError(t, err)
		assert.Equal(t, addr(2).Hex(), token.Owner)
		assert.Equal(t, "bronze", token.Tier)
		// Seed 7: rarity 20 + 7%20, every shifted view is zero
		assert.Equal(t, uint64(27), token.Attributes.Rarity)
		assert.Equal(t, uint64(1), token.Attributes.Luck)
		assert.Equal(t, uint64(1), token.Attributes.Multiplier)
		assert.Equal(t, models.ElementFire, token.Attributes.Element)
	})

	t.Run("ReplayedDeliveryRejected", func(t *testing.T) {
		_, err := h.svc.HandleRandomness(ctx, requestID, h.provider, common.BigToHash(big.NewInt(7)))
		assert.ErrorIs(t, err, ErrUnknownRequest)
	})

	t.Run("WinnerQueryable", func(t *testing.T) {
		records, err := h.svc.GetWinners(ctx, "bronze", 1, 20)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, addr(2).Hex(), records[0].Winner)
	})

	t.Run("EmergencyWithdraw", func(t *testing.T) {
		amount, err := h.svc.EmergencyWithdraw(ctx)
		require.NoError(t, err)
		assert.Equal(t, "75", amount.String())
		assert.Equal(t, "75", h.gateway.Balance(h.owner).String())
		assert.Equal(t, "0", h.svc.HeldBalance().String())

		again, err := h.svc.EmergencyWithdraw(ctx)
		require.NoError(t, err)
		assert.Equal(t, "0", again.String())
	})
}

func TestLotteryServiceCallbackGuards(t *testing.T) {
	ctx := context.Background()
	h := newLotteryHarness(t, testLotteryConfig())

	h.enter(t, models.TierBronze, addr(1), 1000)
	h.enter(t, models.TierBronze, addr(2), 1000)
	pool := h.enter(t, models.TierBronze, addr(3), 1000)
	requestID := *pool.PendingRequestID

	t.Run("WrongProvider", func(t *testing.T) {
		_, err := h.svc.HandleRandomness(ctx, requestID, addr(0xBB), common.BigToHash(big.NewInt(1)))
		assert.ErrorIs(t, err, ErrUnauthorizedCaller)
	})

	t.Run("UnknownRequestID", func(t *testing.T) {
		_, err := h.svc.HandleRandomness(ctx, requestID+100, h.provider, common.BigToHash(big.NewInt(1)))
		assert.ErrorIs(t, err, ErrUnknownRequest)
	})

	t.Run("PayoutFailureKeepsRoundRetryable", func(t *testing.T) {
		h.gateway.FailCredits = true
		_, err := h.svc.HandleRandomness(ctx, requestID, h.provider, common.BigToHash(big.NewInt(7)))
		require.Error(t, err)

		// Still DRAWING with the same request pending, nothing recorded
		assert.Equal(t, models.PoolStatusDrawing, pool.Status())
		require.NotNil(t, pool.PendingRequestID)
		assert.Equal(t, requestID, *pool.PendingRequestID)
		assert.Empty(t, h.winners.records)
		assert.Equal(t, "3000", h.svc.HeldBalance().String())

		// Redelivery of the same id settles once the gateway recovers
		h.gateway.FailCredits = false
		record, err := h.svc.HandleRandomness(ctx, requestID, h.provider, common.BigToHash(big.NewInt(7)))
		require.NoError(t, err)
		assert.Equal(t, addr(2).Hex(), record.Winner)
		assert.Equal(t, uint64(2), pool.Round)
	})
}

func TestLotteryServiceEntryRollback(t *testing.T) {
	ctx := context.Background()
	h := newLotteryHarness(t, testLotteryConfig())
	h.gateway.FailDebits = true

	_, err := h.svc.Enter(ctx, models.TierBronze, addr(1), nil, big.NewInt(1000))
	require.Error(t, err)

	pool, err := h.svc.GetPool(models.TierBronze)
	require.NoError(t, err)
	assert.Equal(t, 0, pool.CurrentParticipants)
	assert.Equal(t, "0", pool.TotalPrize.String())
	assert.Equal(t, "0", h.svc.HeldBalance().String())
}

func TestLotteryServiceManualTrigger(t *testing.T) {
	ctx := context.Background()
	h := newLotteryHarness(t, testLotteryConfig())

	t.Run("BelowQuorum", func(t *testing.T) {
		h.enter(t, models.TierBronze, addr(1), 1000)
		_, err := h.svc.ManualTrigger(ctx, models.TierBronze)
		assert.ErrorIs(t, err, ErrBelowQuorum)
	})

	t.Run("AtQuorum", func(t *testing.T) {
		h.enter(t, models.TierBronze, addr(2), 1000)
		requestID, err := h.svc.ManualTrigger(ctx, models.TierBronze)
		require.NoError(t, err)
		assert.NotZero(t, requestID)

		_, err = h.svc.ManualTrigger(ctx, models.TierBronze)
		assert.ErrorIs(t, err, ErrDrawInProgress)
	})
}

func TestLotteryServiceReferrals(t *testing.T) {
	ctx := context.Background()
	h := newLotteryHarness(t, testLotteryConfig())
	referrer := addr(9)

	_, err := h.svc.Enter(ctx, models.TierBronze, addr(1), &referrer, big.NewInt(1000))
	require.NoError(t, err)

	// 1% of the 1000 entry
	account := h.svc.GetReferralAccount(referrer)
	assert.Equal(t, "10", account.Pending)
	assert.Equal(t, 1, account.Referred)

	t.Run("SecondReferrerIgnored", func(t *testing.T) {
		other := addr(8)
		_, err := h.svc.Enter(ctx, models.TierSilver, addr(1), &other, big.NewInt(5000))
		require.NoError(t, err)
		assert.Equal(t, "0", h.svc.GetReferralAccount(other).Pending)
		assert.Equal(t, addr(9).Hex(), h.svc.GetReferralAccount(addr(1)).Referrer)
	})

	t.Run("ClaimRollsBackOnTransferFailure", func(t *testing.T) {
		h.gateway.FailCredits = true
		_, err := h.svc.ClaimReferral(ctx, referrer)
		require.Error(t, err)
		assert.Equal(t, "10", h.svc.GetReferralAccount(referrer).Pending)
		h.gateway.FailCredits = false
	})

	t.Run("Claim", func(t *testing.T) {
		amount, err := h.svc.ClaimReferral(ctx, referrer)
		require.NoError(t, err)
		assert.Equal(t, "10", amount.String())
		assert.Equal(t, "10", h.gateway.Balance(referrer).String())
		assert.Equal(t, "0", h.svc.GetReferralAccount(referrer).Pending)

		_, err = h.svc.ClaimReferral(ctx, referrer)
		assert.ErrorIs(t, err, ErrNoRewards)
	})
}

func TestLotteryServiceRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testLotteryConfig()
	h := newLotteryHarness(t, cfg)

	h.enter(t, models.TierBronze, addr(1), 1000)
	h.enter(t, models.TierBronze, addr(2), 1000)
	pool := h.enter(t, models.TierBronze, addr(3), 1000)
	requestID := *pool.PendingRequestID

	// Restart with the draw still in flight; the snapshot restore must keep
	// the pending request resolvable.
	h.rebuild(t, cfg)

	restored, err := h.svc.GetPool(models.TierBronze)
	require.NoError(t, err)
	assert.Equal(t, models.PoolStatusDrawing, restored.Status())
	assert.Equal(t, 3, restored.CurrentParticipants)
	assert.Equal(t, "3000", h.svc.HeldBalance().String())

	record, err := h.svc.HandleRandomness(ctx, requestID, h.provider, common.BigToHash(big.NewInt(5)))
	require.NoError(t, err)
	assert.Equal(t, addr(3).Hex(), record.Winner) // 5 mod 3 == 2
	assert.Equal(t, uint64(1), record.TokenID)

	// Token counter resumes past minted ids on the next restart
	h.rebuild(t, cfg)
	token, err := h.svc.GetToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, addr(3).Hex(), token.Owner)
}
