package service

import (
	"context"
	"fmt"

	"github.com/mansoorceksport/liftlog/internal/domain"
	"golang.org/x/sync/errgroup"
)

// overviewConcurrency caps how many members are aggregated at once
const overviewConcurrency = 8

// CoachService builds the coach-facing views over members' histories.
// A coach may only see members they have assigned a plan to.
type CoachService struct {
	history  *HistoryService
	planRepo domain.WorkoutPlanRepository
}

func NewCoachService(history *HistoryService, planRepo domain.WorkoutPlanRepository) *CoachService {
	return &CoachService{
		history:  history,
		planRepo: planRepo,
	}
}

// Clients lists the distinct members the coach has written plans for
func (s *CoachService) Clients(ctx context.Context, coachID string) ([]string, error) {
	plans, err := s.planRepo.ListByCoach(ctx, coachID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coach plans: %w", err)
	}

	seen := make(map[string]bool)
	members := []string{}
	for _, plan := range plans {
		if plan.MemberID != "" && !seen[plan.MemberID] {
			seen[plan.MemberID] = true
			members = append(members, plan.MemberID)
		}
	}
	return members, nil
}

func (s *CoachService) ensureClients(ctx context.Context, coachID string, memberIDs ...string) error {
	clients, err := s.Clients(ctx, coachID)
	if err != nil {
		return err
	}
	allowed := make(map[string]bool, len(clients))
	for _, id := range clients {
		allowed[id] = true
	}
	for _, id := range memberIDs {
		if !allowed[id] {
			return domain.ErrForbidden
		}
	}
	return nil
}

// ClientAnalytics aggregates one client's history for their coach
func (s *CoachService) ClientAnalytics(ctx context.Context, coachID, memberID string, filter domain.HistoryFilter) (*domain.HistoryAnalytics, error) {
	if err := s.ensureClients(ctx, coachID, memberID); err != nil {
		return nil, err
	}
	filter.UserID = memberID
	return s.history.Analytics(ctx, filter)
}

// WorkoutHistories lists every record made against a plan the coach owns
func (s *CoachService) WorkoutHistories(ctx context.Context, coachID, workoutID string, filter domain.HistoryFilter) ([]*domain.WorkoutHistoryRecord, error) {
	plan, err := s.planRepo.GetByID(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	if plan.CoachID != coachID {
		return nil, domain.ErrForbidden
	}
	filter.UserID = ""
	filter.WorkoutID = workoutID
	return s.history.List(ctx, filter)
}

// CoachOverview runs ClientOverview over the requested members, or over all
// of the coach's clients when memberIDs is empty
func (s *CoachService) CoachOverview(ctx context.Context, coachID string, memberIDs []string, filter domain.HistoryFilter) ([]domain.ClientOverview, error) {
	if len(memberIDs) == 0 {
		clients, err := s.Clients(ctx, coachID)
		if err != nil {
			return nil, err
		}
		memberIDs = clients
	} else if err := s.ensureClients(ctx, coachID, memberIDs...); err != nil {
		return nil, err
	}
	return s.ClientOverview(ctx, memberIDs, filter)
}

// ClientOverview aggregates each member concurrently. The result keeps the
// order of memberIDs. filter.UserID is replaced per member.
func (s *CoachService) ClientOverview(ctx context.Context, memberIDs []string, filter domain.HistoryFilter) ([]domain.ClientOverview, error) {
	overviews := make([]domain.ClientOverview, len(memberIDs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)

	for i, memberID := range memberIDs {
		g.Go(func() error {
			f := filter
			f.UserID = memberID
			analytics, err := s.history.Analytics(gCtx, f)
			if err != nil {
				return fmt.Errorf("failed to aggregate member %s: %w", memberID, err)
			}
			overviews[i] = summarizeClient(memberID, analytics)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overviews, nil
}

func summarizeClient(memberID string, analytics *domain.HistoryAnalytics) domain.ClientOverview {
	overview := domain.ClientOverview{
		MemberID:         memberID,
		Workouts:         analytics.WorkoutAnalytics,
		TrackedExercises: len(analytics.ExerciseAnalytics),
	}
	for _, ex := range analytics.ExerciseAnalytics {
		switch ex.ProgressTrend {
		case domain.TrendIncreasing:
			overview.IncreasingCount++
		case domain.TrendDecreasing:
			overview.DecreasingCount++
		default:
			overview.StableCount++
		}
	}
	return overview
}
