package mongodb

import (
	"context"
	"time"

	"github.com/LIN0304/entropy-lottery/internal/models"
	"github.com/LIN0304/entropy-lottery/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WinnerRepository implements the repositories.WinnerRepository interface
type WinnerRepository struct {
	collection *mongo.Collection
}

// NewWinnerRepository creates a new WinnerRepository
func NewWinnerRepository(db *mongo.Database) repositories.WinnerRepository {
	return &WinnerRepository{
		collection: db.Collection("winners"),
	}
}

// Create appends a new winner record
func (r *WinnerRepository) Create(ctx context.Context, record *models.WinnerRecord) error {
	record.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, record)
	return err
}

// FindByID finds a winner record by ID
func (r *WinnerRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.WinnerRecord, error) {
	var record models.WinnerRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *WinnerRepository) find(ctx context.Context, filter bson.M, page, limit int) ([]*models.WinnerRecord, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"settledAt": -1}) // Most recent draws first

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*models.WinnerRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []*models.WinnerRecord{}
	}
	return records, nil
}

// FindByTier finds winner records for a tier with pagination
func (r *WinnerRepository) FindByTier(ctx context.Context, tier string, page, limit int) ([]*models.WinnerRecord, error) {
	return r.find(ctx, bson.M{"tier": tier}, page, limit)
}

// FindByWinner finds winner records for a winner address with pagination
func (r *WinnerRepository) FindByWinner(ctx context.Context, winner string, page, limit int) ([]*models.WinnerRecord, error) {
	return r.find(ctx, bson.M{"winner": winner}, page, limit)
}

// FindAll finds all winner records with pagination
func (r *WinnerRepository) FindAll(ctx context.Context, page, limit int) ([]*models.WinnerRecord, error) {
	return r.find(ctx, bson.M{}, page, limit)
}

// Count counts all winner records
func (r *WinnerRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
