package main

import (
	"context"
	"flag"
	"time"

	"github.com/mansoorceksport/liftlog/internal/config"
	"github.com/mansoorceksport/liftlog/internal/domain"
	"github.com/mansoorceksport/liftlog/internal/repository"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// demoPlan is a three-day split used for local development
func demoPlan(coachID, memberID, tenantID string) *domain.WorkoutPlan {
	return &domain.WorkoutPlan{
		TenantID: tenantID,
		CoachID:  coachID,
		MemberID: memberID,
		Name:     "Push / Pull / Legs",
		TrainingDays: []domain.TrainingDay{
			{
				Name:  "Push",
				Order: 1,
				Exercises: []domain.ExercisePlan{
					{ID: "barbell-bench-press", Name: "Barbell Bench Press", Sets: 4, Reps: "6-8", Rest: "2m"},
					{ID: "incline-dumbbell-press", Name: "Incline Dumbbell Press", Sets: 3, Reps: "8-12", Rest: "1m30s"},
					{ID: "overhead-press", Name: "Overhead Press", Sets: 3, Reps: "8-10", Rest: "90"},
					{ID: "triceps-pushdown", Name: "Triceps Pushdown", Sets: 3, Reps: "12-15", Rest: "60s"},
				},
			},
			{
				Name:  "Pull",
				Order: 2,
				Exercises: []domain.ExercisePlan{
					{ID: "deadlift", Name: "Deadlift", Sets: 3, Reps: "5", Rest: "3m"},
					{ID: "pull-up", Name: "Pull-up", Sets: 3, Reps: "6-10", Rest: "2m"},
					{ID: "barbell-row", Name: "Barbell Row", Sets: 3, Reps: "8-10", Rest: "1m30s"},
					{ID: "hammer-curl", Name: "Hammer Curl", Sets: 3, Reps: "10-12", Rest: "60"},
				},
			},
			{
				Name:  "Legs",
				Order: 3,
				Exercises: []domain.ExercisePlan{
					{ID: "barbell-squat", Name: "Barbell Squat", Sets: 4, Reps: "5-8", Rest: "3m"},
					{ID: "romanian-deadlift", Name: "Romanian Deadlift", Sets: 3, Reps: "8-10", Rest: "2m"},
					{ID: "leg-press", Name: "Leg Press", Sets: 3, Reps: "10-12", Rest: "1m30s"},
					{ID: "calf-raise", Name: "Calf Raise", Sets: 4, Reps: "12-15", Rest: "45s"},
				},
			},
		},
	}
}

func main() {
	coachID := flag.String("coach", "coach-demo", "coach user id")
	memberID := flag.String("member", "member-demo", "member user id")
	tenantID := flag.String("tenant", "gym-demo", "tenant id")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB.Database)
	if err := repository.NewMongoWorkoutHistoryRepository(db).EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	repo := repository.NewMongoWorkoutPlanRepository(db)
	existing, err := repo.ListByMember(ctx, *memberID)
	if err != nil {
		log.Fatalf("Failed to list plans: %v", err)
	}
	if len(existing) > 0 {
		log.Infof("Member %s already has %d plan(s), nothing to seed", *memberID, len(existing))
		return
	}

	plan := demoPlan(*coachID, *memberID, *tenantID)
	if err := repo.Create(ctx, plan); err != nil {
		log.Fatalf("Failed to seed plan: %v", err)
	}
	log.Infof("✓ Seeded plan %q (%s) for member %s", plan.Name, plan.ID, *memberID)
}
