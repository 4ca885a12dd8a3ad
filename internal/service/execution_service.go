package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/liftlog/internal/domain"
	"github.com/oklog/ulid/v2"
	log "github.com/sirupsen/logrus"
)

// ExecutionService drives a member through one training day, from start to the recorded history
type ExecutionService struct {
	planRepo domain.WorkoutPlanRepository
	store    domain.ExecutionStore
	history  *HistoryService
	now      func() time.Time
}

func NewExecutionService(
	planRepo domain.WorkoutPlanRepository,
	store domain.ExecutionStore,
	history *HistoryService,
) *ExecutionService {
	return &ExecutionService{
		planRepo: planRepo,
		store:    store,
		history:  history,
		now:      time.Now,
	}
}

// generateULID creates a new ULID string
func generateULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// Start opens an execution of one training day of a plan assigned to userID.
// The store refuses a second session while one is in progress.
func (s *ExecutionService) Start(ctx context.Context, userID, workoutID string, trainingDayOrder int) (*domain.ExecutionSession, error) {
	plan, err := s.planRepo.GetByID(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	if plan.MemberID != userID {
		return nil, domain.ErrForbidden
	}

	day, err := plan.TrainingDay(trainingDayOrder)
	if err != nil {
		return nil, err
	}

	session := &domain.ExecutionSession{
		ID:               generateULID(),
		UserID:           userID,
		WorkoutID:        plan.ID,
		WorkoutName:      plan.Name,
		TrainingDayName:  day.Name,
		TrainingDayOrder: day.Order,
		Exercises:        make([]domain.ExecutionExercise, 0, len(day.Exercises)),
		StartTime:        s.now(),
	}
	for _, ex := range day.Exercises {
		session.Exercises = append(session.Exercises, domain.ExecutionExercise{
			Plan: ex,
			Sets: []domain.RawSet{},
		})
	}

	if err := s.store.Create(ctx, session); err != nil {
		if errors.Is(err, domain.ErrExecutionInProgress) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save execution: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":      userID,
		"workout_id":   workoutID,
		"execution_id": session.ID,
		"training_day": day.Name,
	}).Info("workout execution started")

	return session, nil
}

// Active returns the session in progress for userID
func (s *ExecutionService) Active(ctx context.Context, userID string) (*domain.ExecutionSession, error) {
	session, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrNoActiveExecution
	}
	return session, nil
}

// LogSet records a set against the exercise at index. A set with a known ID
// replaces the earlier entry; one without an ID gets a fresh ULID and is appended.
func (s *ExecutionService) LogSet(ctx context.Context, userID string, index int, set domain.RawSet) (*domain.ExecutionSession, error) {
	return s.update(ctx, userID, index, func(ex *domain.ExecutionExercise) {
		if set.ID == "" {
			set.ID = generateULID()
			ex.Sets = append(ex.Sets, set)
			return
		}
		for i := range ex.Sets {
			if ex.Sets[i].ID == set.ID {
				ex.Sets[i] = set
				return
			}
		}
		ex.Sets = append(ex.Sets, set)
	})
}

func (s *ExecutionService) SetExerciseNotes(ctx context.Context, userID string, index int, notes string) (*domain.ExecutionSession, error) {
	return s.update(ctx, userID, index, func(ex *domain.ExecutionExercise) {
		ex.Notes = notes
	})
}

func (s *ExecutionService) update(ctx context.Context, userID string, index int, apply func(ex *domain.ExecutionExercise)) (*domain.ExecutionSession, error) {
	return s.store.Update(ctx, userID, func(session *domain.ExecutionSession) error {
		ex, err := session.Exercise(index)
		if err != nil {
			return err
		}
		apply(ex)
		return nil
	})
}

// Finish closes the active session, maps it into a history record and
// stores it. The session is taken out of the store first, so concurrent
// finishes produce a single record; if storing fails it is put back.
func (s *ExecutionService) Finish(ctx context.Context, userID, notes string) (*domain.WorkoutHistoryRecord, error) {
	session, err := s.store.Take(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrNoActiveExecution
	}

	finished := *session
	end := s.now()
	finished.EndTime = &end
	if notes != "" {
		finished.WorkoutNotes = notes
	}

	record, err := NewHistoryMapper(s.now).Map(&finished)
	if err == nil {
		err = s.history.Record(ctx, record)
	}
	if err != nil {
		s.restore(ctx, session)
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":      userID,
		"execution_id": session.ID,
		"history_id":   record.ID,
	}).Info("workout execution finished")

	return record, nil
}

// restore puts a taken session back unless the user already started another one
func (s *ExecutionService) restore(ctx context.Context, session *domain.ExecutionSession) {
	if err := s.store.Create(ctx, session); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id":      session.UserID,
			"execution_id": session.ID,
		}).Error("failed to restore execution after unsuccessful finish")
	}
}

// Abandon drops the active session without recording anything
func (s *ExecutionService) Abandon(ctx context.Context, userID string) error {
	session, err := s.store.Take(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete execution: %w", err)
	}
	if session == nil {
		return domain.ErrNoActiveExecution
	}
	log.WithFields(log.Fields{
		"user_id":      userID,
		"execution_id": session.ID,
	}).Info("workout execution abandoned")
	return nil
}
