package activity

import (
	"context"
	"fmt"

	"mentoring-svc/src/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Insert(ctx context.Context, entry *models.ActivityEntry) error
	FindRecent(ctx context.Context, username string, limit int64) ([]*models.ActivityEntry, error)
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewRepository(collection *mongo.Collection) Repository {
	return &mongoRepository{collection: collection}
}

func (r *mongoRepository) Insert(ctx context.Context, entry *models.ActivityEntry) error {
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("%w: %v", models.ErrDatabaseInsert, err)
	}
	return nil
}

func (r *mongoRepository) FindRecent(ctx context.Context, username string, limit int64) ([]*models.ActivityEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"username": username}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}
	defer cursor.Close(ctx)

	var entries []*models.ActivityEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}
	return entries, nil
}

type noopRepository struct{}

// NewNoopRepository is used when mongo is not configured.
func NewNoopRepository() Repository {
	return noopRepository{}
}

func (noopRepository) Insert(context.Context, *models.ActivityEntry) error { return nil }

func (noopRepository) FindRecent(context.Context, string, int64) ([]*models.ActivityEntry, error) {
	return nil, nil
}
