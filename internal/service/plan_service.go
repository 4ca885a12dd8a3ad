package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mansoorceksport/liftlog/internal/domain"
)

var ErrInvalidPlan = errors.New("invalid workout plan")

// PlanService manages the plans coaches write for their members
type PlanService struct {
	planRepo domain.WorkoutPlanRepository
}

func NewPlanService(planRepo domain.WorkoutPlanRepository) *PlanService {
	return &PlanService{planRepo: planRepo}
}

func validatePlan(plan *domain.WorkoutPlan) error {
	if strings.TrimSpace(plan.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPlan)
	}
	if plan.MemberID == "" {
		return fmt.Errorf("%w: member_id is required", ErrInvalidPlan)
	}
	seen := make(map[int]bool, len(plan.TrainingDays))
	for _, day := range plan.TrainingDays {
		if seen[day.Order] {
			return fmt.Errorf("%w: duplicate training day order %d", ErrInvalidPlan, day.Order)
		}
		seen[day.Order] = true
		for _, ex := range day.Exercises {
			if ex.ID == "" || ex.Name == "" {
				return fmt.Errorf("%w: exercise in %q needs an id and a name", ErrInvalidPlan, day.Name)
			}
		}
	}
	return nil
}

// Create stores a new plan authored by coachID
func (s *PlanService) Create(ctx context.Context, coachID, tenantID string, plan *domain.WorkoutPlan) error {
	plan.CoachID = coachID
	plan.TenantID = tenantID
	if plan.TrainingDays == nil {
		plan.TrainingDays = []domain.TrainingDay{}
	}
	if err := validatePlan(plan); err != nil {
		return err
	}
	return s.planRepo.Create(ctx, plan)
}

// GetForCoach returns a plan only to the coach who wrote it
func (s *PlanService) GetForCoach(ctx context.Context, coachID, id string) (*domain.WorkoutPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.CoachID != coachID {
		return nil, domain.ErrForbidden
	}
	return plan, nil
}

// GetForMember returns a plan only to the member it is assigned to
func (s *PlanService) GetForMember(ctx context.Context, memberID, id string) (*domain.WorkoutPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.MemberID != memberID {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

func (s *PlanService) ListForMember(ctx context.Context, memberID string) ([]*domain.WorkoutPlan, error) {
	return s.planRepo.ListByMember(ctx, memberID)
}

func (s *PlanService) ListForCoach(ctx context.Context, coachID string) ([]*domain.WorkoutPlan, error) {
	return s.planRepo.ListByCoach(ctx, coachID)
}

// Update replaces name, member and training days of a plan the coach owns
func (s *PlanService) Update(ctx context.Context, coachID, id string, changes *domain.WorkoutPlan) (*domain.WorkoutPlan, error) {
	plan, err := s.GetForCoach(ctx, coachID, id)
	if err != nil {
		return nil, err
	}

	plan.Name = changes.Name
	plan.MemberID = changes.MemberID
	plan.TrainingDays = changes.TrainingDays
	if plan.TrainingDays == nil {
		plan.TrainingDays = []domain.TrainingDay{}
	}
	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *PlanService) Delete(ctx context.Context, coachID, id string) error {
	if _, err := s.GetForCoach(ctx, coachID, id); err != nil {
		return err
	}
	return s.planRepo.Delete(ctx, id)
}
