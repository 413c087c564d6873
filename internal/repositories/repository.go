package repositories

import (
	"context"

	"github.com/LIN0304/entropy-lottery/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PoolSnapshotRepository defines the interface for pool round snapshot operations
type PoolSnapshotRepository interface {
	Upsert(ctx context.Context, snapshot *models.PoolSnapshot) error
	FindByTier(ctx context.Context, tier string) (*models.PoolSnapshot, error)
	FindAll(ctx context.Context) ([]*models.PoolSnapshot, error)
}

// WinnerRepository defines the interface for winner record operations. Winner
// records are append-only; there is no update or delete.
type WinnerRepository interface {
	Create(ctx context.Context, record *models.WinnerRecord) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.WinnerRecord, error)
	FindByTier(ctx context.Context, tier string, page, limit int) ([]*models.WinnerRecord, error)
	FindByWinner(ctx context.Context, winner string, page, limit int) ([]*models.WinnerRecord, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.WinnerRecord, error)
	Count(ctx context.Context) (int64, error)
}

// RewardTokenRepository defines the interface for reward token operations
type RewardTokenRepository interface {
	Create(ctx context.Context, token *models.RewardToken) error
	FindByTokenID(ctx context.Context, tokenID uint64) (*models.RewardToken, error)
	FindByOwner(ctx context.Context, owner string, page, limit int) ([]*models.RewardToken, error)
	MaxTokenID(ctx context.Context) (uint64, error)
	Count(ctx context.Context) (int64, error)
}

// ReferralRepository defines the interface for referral ledger mirror operations
type ReferralRepository interface {
	Upsert(ctx context.Context, account *models.ReferralAccount) error
	FindByAddress(ctx context.Context, address string) (*models.ReferralAccount, error)
	FindAll(ctx context.Context) ([]*models.ReferralAccount, error)
}

// EventRepository defines the interface for emitted observation operations
type EventRepository interface {
	Create(ctx context.Context, event *models.LotteryEvent) error
	FindByType(ctx context.Context, eventType models.EventType, page, limit int) ([]*models.LotteryEvent, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.LotteryEvent, error)
	Count(ctx context.Context) (int64, error)
}

// AdminUserRepository defines the interface for admin user data operations
type AdminUserRepository interface {
	Create(ctx context.Context, adminUser *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error)
	Count(ctx context.Context) (int64, error)
}
