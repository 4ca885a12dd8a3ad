package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/liftlog/internal/domain"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("liftlog/service")

// HistoryService owns the append-only workout history and the analytics derived from it
type HistoryService struct {
	historyRepo domain.WorkoutHistoryRepository
	cache       domain.AnalyticsCache
	cacheTTL    time.Duration
}

// NewHistoryService creates a new HistoryService. cache may be nil, in which
// case analytics are recomputed on every call.
func NewHistoryService(historyRepo domain.WorkoutHistoryRepository, cache domain.AnalyticsCache, cacheTTL time.Duration) *HistoryService {
	return &HistoryService{
		historyRepo: historyRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
	}
}

// Record persists a mapped history and drops the user's memoized analytics
func (s *HistoryService) Record(ctx context.Context, record *domain.WorkoutHistoryRecord) error {
	if record == nil || record.Exercises == nil {
		return fmt.Errorf("cannot record workout history: %w", domain.ErrMissingExercises)
	}
	if record.UserID == "" {
		return errors.New("workout history has no user")
	}

	if err := s.historyRepo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to save workout history: %w", err)
	}

	if s.cache != nil {
		// On failure the stale memo lives until its TTL
		if err := s.cache.InvalidateUser(ctx, record.UserID); err != nil {
			log.WithError(err).WithField("user_id", record.UserID).Warn("failed to invalidate analytics cache")
		}
	}

	log.WithFields(log.Fields{
		"user_id":    record.UserID,
		"workout_id": record.WorkoutID,
		"history_id": record.ID,
		"exercises":  len(record.Exercises),
	}).Info("workout history recorded")

	return nil
}

func (s *HistoryService) Get(ctx context.Context, id string) (*domain.WorkoutHistoryRecord, error) {
	return s.historyRepo.GetByID(ctx, id)
}

// GetForUser returns a record only if it belongs to userID
func (s *HistoryService) GetForUser(ctx context.Context, userID, id string) (*domain.WorkoutHistoryRecord, error) {
	record, err := s.historyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, domain.ErrHistoryNotFound
	}
	return record, nil
}

func (s *HistoryService) ListByUser(ctx context.Context, userID string) ([]*domain.WorkoutHistoryRecord, error) {
	return s.historyRepo.ListByUser(ctx, userID)
}

func (s *HistoryService) ListByWorkout(ctx context.Context, workoutID string) ([]*domain.WorkoutHistoryRecord, error) {
	return s.historyRepo.ListByWorkout(ctx, workoutID)
}

// List returns the snapshot narrowed by filter, newest first
func (s *HistoryService) List(ctx context.Context, filter domain.HistoryFilter) ([]*domain.WorkoutHistoryRecord, error) {
	histories, err := s.snapshot(ctx, filter)
	if err != nil {
		return nil, err
	}
	return FilterHistories(histories, filter), nil
}

// Analytics aggregates the filtered history. Results for a user are memoized
// until the user's history changes or the TTL runs out.
func (s *HistoryService) Analytics(ctx context.Context, filter domain.HistoryFilter) (*domain.HistoryAnalytics, error) {
	ctx, span := tracer.Start(ctx, "HistoryService.Analytics")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", filter.UserID),
		attribute.String("workout_id", filter.WorkoutID),
	)

	// The generation is read before the snapshot: a Record landing in between
	// bumps it, and this result is then stored where nobody looks.
	var generation int64
	memo := s.cache != nil && filter.UserID != ""
	if memo {
		gen, err := s.cache.Generation(ctx, filter.UserID)
		if err != nil {
			log.WithError(err).Warn("analytics cache generation read failed")
			memo = false
		}
		generation = gen
	}

	if memo {
		cached, err := s.cache.GetAnalytics(ctx, filter.UserID, generation, filter)
		if err != nil {
			log.WithError(err).Warn("analytics cache read failed")
		} else if cached != nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return cached, nil
		}
	}

	histories, err := s.snapshot(ctx, filter)
	if err != nil {
		return nil, err
	}

	analytics := AggregateHistory(histories, filter)
	span.SetAttributes(
		attribute.Int("histories", len(histories)),
		attribute.Int("filtered", len(analytics.FilteredHistories)),
	)

	if memo {
		if err := s.cache.SetAnalytics(ctx, filter.UserID, generation, filter, analytics, s.cacheTTL); err != nil {
			log.WithError(err).Warn("analytics cache write failed")
		}
	}

	return analytics, nil
}

// snapshot loads the records analytics run over: the user's when a user is
// given, otherwise every record of the workout
func (s *HistoryService) snapshot(ctx context.Context, filter domain.HistoryFilter) ([]*domain.WorkoutHistoryRecord, error) {
	var (
		histories []*domain.WorkoutHistoryRecord
		err       error
	)
	switch {
	case filter.UserID != "":
		histories, err = s.historyRepo.ListByUser(ctx, filter.UserID)
	case filter.WorkoutID != "":
		histories, err = s.historyRepo.ListByWorkout(ctx, filter.WorkoutID)
	default:
		return nil, errors.New("history filter needs a user or a workout")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load workout histories: %w", err)
	}
	return histories, nil
}
