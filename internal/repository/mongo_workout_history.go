package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/liftlog/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoWorkoutHistoryRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutHistoryRepository(db *mongo.Database) *MongoWorkoutHistoryRepository {
	return &MongoWorkoutHistoryRepository{
		collection: db.Collection("workout_histories"),
	}
}

// EnsureIndexes creates the lookup indexes used by the list queries
func (r *MongoWorkoutHistoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "executed_at", Value: -1}}},
		{Keys: bson.D{{Key: "workout_id", Value: 1}, {Key: "executed_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create history indexes: %w", err)
	}
	return nil
}

// Create inserts a record. History is append-only, there is no update.
func (r *MongoWorkoutHistoryRepository) Create(ctx context.Context, record *domain.WorkoutHistoryRecord) error {
	record.ID = ""
	record.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to create workout history: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid.Hex()
	}
	return nil
}

func (r *MongoWorkoutHistoryRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutHistoryRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var record domain.WorkoutHistoryRecord
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrHistoryNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *MongoWorkoutHistoryRepository) ListByUser(ctx context.Context, userID string) ([]*domain.WorkoutHistoryRecord, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *MongoWorkoutHistoryRepository) ListByWorkout(ctx context.Context, workoutID string) ([]*domain.WorkoutHistoryRecord, error) {
	return r.find(ctx, bson.M{"workout_id": workoutID})
}

func (r *MongoWorkoutHistoryRepository) find(ctx context.Context, filter bson.M) ([]*domain.WorkoutHistoryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "executed_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query workout histories: %w", err)
	}
	defer cursor.Close(ctx)

	records := []*domain.WorkoutHistoryRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
