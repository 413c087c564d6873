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

// EventRepository implements the repositories.EventRepository interface
type EventRepository struct {
	collection *mongo.Collection
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *mongo.Database) repositories.EventRepository {
	return &EventRepository{
		collection: db.Collection("events"),
	}
}

// Create stores an emitted observation
func (r *EventRepository) Create(ctx context.Context, event *models.LotteryEvent) error {
	event.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

func (r *EventRepository) find(ctx context.Context, filter bson.M, page, limit int) ([]*models.LotteryEvent, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"createdAt": -1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*models.LotteryEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []*models.LotteryEvent{}
	}
	return events, nil
}

// FindByType finds events of one type with pagination
func (r *EventRepository) FindByType(ctx context.Context, eventType models.EventType, page, limit int) ([]*models.LotteryEvent, error) {
	return r.find(ctx, bson.M{"type": eventType}, page, limit)
}

// FindAll finds all events with pagination
func (r *EventRepository) FindAll(ctx context.Context, page, limit int) ([]*models.LotteryEvent, error) {
	return r.find(ctx, bson.M{}, page, limit)
}

// Count counts all events
func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
