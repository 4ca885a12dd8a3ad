package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPlanNotFound        = errors.New("workout plan not found")
	ErrTrainingDayNotFound = errors.New("training day not found in workout plan")
)

// ExercisePlan is one prescribed exercise of a training day.
// Reps and Rest are free text as typed by the coach ("8-12", "1m30s").
type ExercisePlan struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
	Sets int    `json:"sets" bson:"sets"`
	Reps string `json:"reps" bson:"reps"`
	Rest string `json:"rest" bson:"rest"`
}

// TrainingDay is a named, ordered day slot inside a plan
type TrainingDay struct {
	Name      string         `json:"name" bson:"name"`
	Order     int            `json:"order" bson:"order"`
	DayOfWeek *int           `json:"dayOfWeek,omitempty" bson:"day_of_week,omitempty"` // 1 (Mon) - 7 (Sun)
	Exercises []ExercisePlan `json:"exercises" bson:"exercises"`
}

// WorkoutPlan is what a coach assigns to a member
type WorkoutPlan struct {
	ID           string        `json:"id" bson:"_id,omitempty"`
	TenantID     string        `json:"tenantId" bson:"tenant_id"`
	CoachID      string        `json:"coachId" bson:"coach_id"`
	MemberID     string        `json:"memberId" bson:"member_id"`
	Name         string        `json:"name" bson:"name"`
	TrainingDays []TrainingDay `json:"trainingDays" bson:"training_days"`
	CreatedAt    time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" bson:"updated_at"`
}

// TrainingDay returns the day with the given order
func (p *WorkoutPlan) TrainingDay(order int) (*TrainingDay, error) {
	for i := range p.TrainingDays {
		if p.TrainingDays[i].Order == order {
			return &p.TrainingDays[i], nil
		}
	}
	return nil, ErrTrainingDayNotFound
}

type WorkoutPlanRepository interface {
	Create(ctx context.Context, plan *WorkoutPlan) error
	GetByID(ctx context.Context, id string) (*WorkoutPlan, error)
	ListByMember(ctx context.Context, memberID string) ([]*WorkoutPlan, error)
	ListByCoach(ctx context.Context, coachID string) ([]*WorkoutPlan, error)
	Update(ctx context.Context, plan *WorkoutPlan) error
	Delete(ctx context.Context, id string) error
}
