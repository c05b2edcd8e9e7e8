package repositories

import (
	"context"
	"time"

	"github.com/encoreline/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RelationEventRepository defines the interface for the relation audit journal
type RelationEventRepository interface {
	Append(ctx context.Context, event *models.RelationEvent) error
	ListByActor(ctx context.Context, actorID uint, skip, limit int64) ([]models.RelationEvent, error)
	ListBySubject(ctx context.Context, subjectID uint, skip, limit int64) ([]models.RelationEvent, error)
}

// MongoRelationEventRepository implements RelationEventRepository for MongoDB
type MongoRelationEventRepository struct {
	collection *mongo.Collection
}

// NewMongoRelationEventRepository creates a new MongoRelationEventRepository
func NewMongoRelationEventRepository(db *mongo.Database) *MongoRelationEventRepository {
	return &MongoRelationEventRepository{collection: db.Collection("relation_events")}
}

// Append inserts one audit document. Journal writes are best-effort from
// the caller's perspective; a failed append must not fail the mutation it
// describes, so callers log and continue.
func (r *MongoRelationEventRepository) Append(ctx context.Context, event *models.RelationEvent) error {
	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

// ListByActor retrieves events performed by a user, newest first.
func (r *MongoRelationEventRepository) ListByActor(ctx context.Context, actorID uint, skip, limit int64) ([]models.RelationEvent, error) {
	return r.list(ctx, bson.M{"actor_id": actorID}, skip, limit)
}

// ListBySubject retrieves events targeting a user, newest first.
func (r *MongoRelationEventRepository) ListBySubject(ctx context.Context, subjectID uint, skip, limit int64) ([]models.RelationEvent, error) {
	return r.list(ctx, bson.M{"subject_id": subjectID}, skip, limit)
}

func (r *MongoRelationEventRepository) list(ctx context.Context, filter bson.M, skip, limit int64) ([]models.RelationEvent, error) {
	var events []models.RelationEvent
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
