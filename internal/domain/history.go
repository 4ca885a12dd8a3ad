package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrHistoryNotFound = errors.New("workout history not found")
)

// HistorySet is one executed set, normalized for storage.
// Optional fields are nil when the source value was missing or unparsable.
type HistorySet struct {
	SetNumber      int       `json:"setNumber" bson:"set_number"` // 1-based
	Weight         *float64  `json:"weight,omitempty" bson:"weight,omitempty"`
	Reps           int       `json:"reps" bson:"reps"`
	PlannedRepsMin *int      `json:"plannedRepsMin,omitempty" bson:"planned_reps_min,omitempty"`
	PlannedRepsMax *int      `json:"plannedRepsMax,omitempty" bson:"planned_reps_max,omitempty"`
	RestSeconds    *int      `json:"restSeconds,omitempty" bson:"rest_seconds,omitempty"`
	IsCompleted    bool      `json:"isCompleted" bson:"is_completed"`
	IsFailure      bool      `json:"isFailure" bson:"is_failure"`
	Notes          *string   `json:"notes,omitempty" bson:"notes,omitempty"`
	ExecutedAt     time.Time `json:"executedAt" bson:"executed_at"`
}

// WeightOrZero returns the recorded weight, 0 when absent
func (s HistorySet) WeightOrZero() float64 {
	if s.Weight == nil {
		return 0
	}
	return *s.Weight
}

// Volume is weight x reps; sets without weight contribute nothing
func (s HistorySet) Volume() float64 {
	return s.WeightOrZero() * float64(s.Reps)
}

type HistoryExercise struct {
	ExerciseID    string       `json:"exerciseId" bson:"exercise_id"`
	ExerciseName  string       `json:"exerciseName" bson:"exercise_name"`
	Order         int          `json:"order" bson:"order"` // 1-based
	PlannedSets   int          `json:"plannedSets" bson:"planned_sets"`
	CompletedSets int          `json:"completedSets" bson:"completed_sets"`
	Notes         *string      `json:"notes,omitempty" bson:"notes,omitempty"`
	Sets          []HistorySet `json:"sets" bson:"sets"`
}

// WorkoutHistoryRecord is an immutable snapshot of one completed training day
type WorkoutHistoryRecord struct {
	ID               string            `json:"id,omitempty" bson:"_id,omitempty"`
	UserID           string            `json:"userId" bson:"user_id"`
	WorkoutID        string            `json:"workoutId" bson:"workout_id"`
	ExecutedAt       time.Time         `json:"executedAt" bson:"executed_at"`
	WorkoutName      string            `json:"workoutName" bson:"workout_name"`
	TrainingDayName  string            `json:"trainingDayName" bson:"training_day_name"`
	TrainingDayOrder int               `json:"trainingDayOrder" bson:"training_day_order"`
	Notes            *string           `json:"notes,omitempty" bson:"notes,omitempty"`
	DurationMinutes  *int              `json:"durationMinutes,omitempty" bson:"duration_minutes,omitempty"`
	Exercises        []HistoryExercise `json:"exercises" bson:"exercises"`
	CreatedAt        time.Time         `json:"createdAt,omitempty" bson:"created_at"`
}

// DurationOrZero returns the duration in minutes, 0 when unknown
func (r *WorkoutHistoryRecord) DurationOrZero() int {
	if r.DurationMinutes == nil {
		return 0
	}
	return *r.DurationMinutes
}

// WorkoutHistoryRepository is append-only: records are never updated once created
type WorkoutHistoryRepository interface {
	Create(ctx context.Context, record *WorkoutHistoryRecord) error
	GetByID(ctx context.Context, id string) (*WorkoutHistoryRecord, error)
	// ListByUser returns the user's records newest first
	ListByUser(ctx context.Context, userID string) ([]*WorkoutHistoryRecord, error)
	// ListByWorkout returns every record of a plan newest first
	ListByWorkout(ctx context.Context, workoutID string) ([]*WorkoutHistoryRecord, error)
}
