package service

import (
	"fmt"
	"math"
	"time"

	"github.com/mansoorceksport/liftlog/internal/domain"
)

// HistoryMapper turns a finished execution session into a history record
type HistoryMapper struct {
	now func() time.Time
}

// NewHistoryMapper creates a mapper; now stamps the record and every set
func NewHistoryMapper(now func() time.Time) *HistoryMapper {
	if now == nil {
		now = time.Now
	}
	return &HistoryMapper{now: now}
}

var defaultMapper = NewHistoryMapper(time.Now)

// MapToWorkoutHistory maps a session using the wall clock
func MapToWorkoutHistory(session *domain.ExecutionSession) (*domain.WorkoutHistoryRecord, error) {
	return defaultMapper.Map(session)
}

// Map builds the persistable record. The only rejected input is a session
// without an exercises list; missing sets or notes just produce empty values.
func (m *HistoryMapper) Map(session *domain.ExecutionSession) (*domain.WorkoutHistoryRecord, error) {
	if session == nil || session.Exercises == nil {
		return nil, fmt.Errorf("cannot map workout history: %w", domain.ErrMissingExercises)
	}

	executedAt := m.now()

	record := &domain.WorkoutHistoryRecord{
		UserID:           session.UserID,
		WorkoutID:        session.WorkoutID,
		ExecutedAt:       executedAt,
		WorkoutName:      session.WorkoutName,
		TrainingDayName:  session.TrainingDayName,
		TrainingDayOrder: session.TrainingDayOrder,
		Notes:            optionalString(session.WorkoutNotes),
		DurationMinutes:  durationMinutes(session.StartTime, session.EndTime),
		Exercises:        make([]domain.HistoryExercise, 0, len(session.Exercises)),
	}

	for i, ex := range session.Exercises {
		record.Exercises = append(record.Exercises, mapExercise(i, ex, executedAt))
	}

	return record, nil
}

func mapExercise(index int, ex domain.ExecutionExercise, executedAt time.Time) domain.HistoryExercise {
	// Rep target and rest come from the plan, so every set of the exercise shares them
	planned := ParseRepsString(ex.Plan.Reps)
	rest := ParseRestTime(ex.Plan.Rest)

	sets := make([]domain.HistorySet, 0, len(ex.Sets))
	completed := 0
	for j, raw := range ex.Sets {
		if raw.Completed {
			completed++
		}

		set := domain.HistorySet{
			SetNumber:      j + 1,
			Reps:           raw.Reps,
			PlannedRepsMin: planned.Min,
			PlannedRepsMax: planned.Max,
			RestSeconds:    rest,
			IsCompleted:    raw.Completed,
			IsFailure:      false,
			ExecutedAt:     executedAt,
		}
		if raw.Weight > 0 {
			w := raw.Weight
			set.Weight = &w
		}
		sets = append(sets, set)
	}

	return domain.HistoryExercise{
		ExerciseID:    ex.Plan.ID,
		ExerciseName:  ex.Plan.Name,
		Order:         index + 1,
		PlannedSets:   ex.Plan.Sets,
		CompletedSets: completed,
		Notes:         optionalString(ex.Notes),
		Sets:          sets,
	}
}

// durationMinutes floors the elapsed time; nil while the session has no end
func durationMinutes(start time.Time, end *time.Time) *int {
	if end == nil {
		return nil
	}
	minutes := int(math.Floor(float64(end.Sub(start).Milliseconds()) / 60000))
	return &minutes
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
