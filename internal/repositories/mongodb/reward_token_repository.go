package mongodb

import (
	"context"
	"time"

	"github.com/LIN0304/entropy-lottery/internal/models"
	"github.com/LIN0304/entropy-lottery/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RewardTokenRepository implements the repositories.RewardTokenRepository interface
type RewardTokenRepository struct {
	collection *mongo.Collection
}

// NewRewardTokenRepository creates a new RewardTokenRepository
func NewRewardTokenRepository(db *mongo.Database) repositories.RewardTokenRepository {
	return &RewardTokenRepository{
		collection: db.Collection("reward_tokens"),
	}
}

// Create stores a newly minted token, keyed by its token id
func (r *RewardTokenRepository) Create(ctx context.Context, token *models.RewardToken) error {
	token.MintedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, token)
	return err
}

// FindByTokenID finds a token by its token id
func (r *RewardTokenRepository) FindByTokenID(ctx context.Context, tokenID uint64) (*models.RewardToken, error) {
	var token models.RewardToken
	err := r.collection.FindOne(ctx, bson.M{"_id": tokenID}).Decode(&token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// FindByOwner finds tokens held by an owner with pagination
func (r *RewardTokenRepository) FindByOwner(ctx context.Context, owner string, page, limit int) ([]*models.RewardToken, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"_id": -1})

	cursor, err := r.collection.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tokens []*models.RewardToken
	if err := cursor.All(ctx, &tokens); err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = []*models.RewardToken{}
	}
	return tokens, nil
}

// MaxTokenID returns the highest minted token id, or zero when none exist.
// Used to seed the monotonic token counter at startup.
func (r *RewardTokenRepository) MaxTokenID(ctx context.Context) (uint64, error) {
	opts := options.FindOne().SetSort(bson.M{"_id": -1})
	var token models.RewardToken
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&token)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return token.TokenID, nil
}

// Count counts all minted tokens
func (r *RewardTokenRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
