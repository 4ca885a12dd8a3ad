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

type MongoWorkoutPlanRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutPlanRepository(db *mongo.Database) *MongoWorkoutPlanRepository {
	return &MongoWorkoutPlanRepository{
		collection: db.Collection("workout_plans"),
	}
}

func (r *MongoWorkoutPlanRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) error {
	plan.ID = ""
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return fmt.Errorf("failed to create workout plan: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		plan.ID = oid.Hex()
	}
	return nil
}

func (r *MongoWorkoutPlanRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutPlan, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var plan domain.WorkoutPlan
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&plan)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *MongoWorkoutPlanRepository) ListByMember(ctx context.Context, memberID string) ([]*domain.WorkoutPlan, error) {
	return r.list(ctx, bson.M{"member_id": memberID})
}

func (r *MongoWorkoutPlanRepository) ListByCoach(ctx context.Context, coachID string) ([]*domain.WorkoutPlan, error) {
	return r.list(ctx, bson.M{"coach_id": coachID})
}

func (r *MongoWorkoutPlanRepository) list(ctx context.Context, filter bson.M) ([]*domain.WorkoutPlan, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []*domain.WorkoutPlan{}
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *MongoWorkoutPlanRepository) Update(ctx context.Context, plan *domain.WorkoutPlan) error {
	oid, err := primitive.ObjectIDFromHex(plan.ID)
	if err != nil {
		return domain.ErrInvalidID
	}
	plan.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"name":          plan.Name,
			"member_id":     plan.MemberID,
			"training_days": plan.TrainingDays,
			"updated_at":    plan.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update workout plan: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}

func (r *MongoWorkoutPlanRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}
	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
