package mongodb

import (
	"context"

	"github.com/LIN0304/entropy-lottery/internal/models"
	"github.com/LIN0304/entropy-lottery/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PoolSnapshotRepository implements the repositories.PoolSnapshotRepository interface
type PoolSnapshotRepository struct {
	collection *mongo.Collection
}

// NewPoolSnapshotRepository creates a new PoolSnapshotRepository
func NewPoolSnapshotRepository(db *mongo.Database) repositories.PoolSnapshotRepository {
	return &PoolSnapshotRepository{
		collection: db.Collection("pool_snapshots"),
	}
}

// Upsert writes the snapshot for a tier, keyed by tier name
func (r *PoolSnapshotRepository) Upsert(ctx context.Context, snapshot *models.PoolSnapshot) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": snapshot.Tier}, snapshot, opts)
	return err
}

// FindByTier finds the snapshot for a tier
func (r *PoolSnapshotRepository) FindByTier(ctx context.Context, tier string) (*models.PoolSnapshot, error) {
	var snapshot models.PoolSnapshot
	err := r.collection.FindOne(ctx, bson.M{"_id": tier}).Decode(&snapshot)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// FindAll returns the snapshots for every tier
func (r *PoolSnapshotRepository) FindAll(ctx context.Context) ([]*models.PoolSnapshot, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var snapshots []*models.PoolSnapshot
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}
