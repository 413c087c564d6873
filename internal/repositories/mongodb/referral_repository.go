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

// ReferralRepository implements the repositories.ReferralRepository interface
type ReferralRepository struct {
	collection *mongo.Collection
}

// NewReferralRepository creates a new ReferralRepository
func NewReferralRepository(db *mongo.Database) repositories.ReferralRepository {
	return &ReferralRepository{
		collection: db.Collection("referral_accounts"),
	}
}

// Upsert writes the account mirror document, keyed by address
func (r *ReferralRepository) Upsert(ctx context.Context, account *models.ReferralAccount) error {
	account.UpdatedAt = time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": account.Address}, account, opts)
	return err
}

// FindByAddress finds a referral account by address
func (r *ReferralRepository) FindByAddress(ctx context.Context, address string) (*models.ReferralAccount, error) {
	var account models.ReferralAccount
	err := r.collection.FindOne(ctx, bson.M{"_id": address}).Decode(&account)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindAll returns every referral account
func (r *ReferralRepository) FindAll(ctx context.Context) ([]*models.ReferralAccount, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []*models.ReferralAccount
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}
