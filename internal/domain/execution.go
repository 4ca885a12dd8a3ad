package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNoActiveExecution       = errors.New("no workout execution in progress")
	ErrExecutionInProgress     = errors.New("a workout execution is already in progress")
	ErrExerciseIndexOutOfRange = errors.New("exercise index out of range")
	ErrMissingExercises        = errors.New("execution session has no exercises list")
)

// RawSet is a set as captured on the device.
// Weight 0 means "not entered", not a zero-load set.
type RawSet struct {
	ID        string  `json:"id"`
	Weight    float64 `json:"weight"`
	Reps      int     `json:"reps"`
	Completed bool    `json:"completed"`
}

// ExecutionExercise ties a planned exercise to what was actually done for it
type ExecutionExercise struct {
	Plan  ExercisePlan `json:"plan"`
	Sets  []RawSet     `json:"sets"`
	Notes string       `json:"notes,omitempty"`
}

// ExecutionSession is the in-progress state of a training day being performed.
// It is consumed exactly once by the history mapper.
type ExecutionSession struct {
	ID               string              `json:"id"` // ULID
	UserID           string              `json:"userId"`
	WorkoutID        string              `json:"workoutId"`
	WorkoutName      string              `json:"workoutName"`
	TrainingDayName  string              `json:"trainingDayName"`
	TrainingDayOrder int                 `json:"trainingDayOrder"`
	Exercises        []ExecutionExercise `json:"exercises"`
	StartTime        time.Time           `json:"startTime"`
	EndTime          *time.Time          `json:"endTime,omitempty"`
	WorkoutNotes     string              `json:"workoutNotes,omitempty"`
}

// Exercise returns the exercise at index, checking bounds
func (s *ExecutionSession) Exercise(index int) (*ExecutionExercise, error) {
	if index < 0 || index >= len(s.Exercises) {
		return nil, ErrExerciseIndexOutOfRange
	}
	return &s.Exercises[index], nil
}

// ExecutionStore keeps the active session of each user so a client can resume it.
// Create, Update and Take are atomic per user.
type ExecutionStore interface {
	// Create stores a new session; ErrExecutionInProgress if the user already has one
	Create(ctx context.Context, session *ExecutionSession) error
	// Get returns nil, nil when nothing is in progress
	Get(ctx context.Context, userID string) (*ExecutionSession, error)
	// Update applies fn to the active session and stores the result.
	// ErrNoActiveExecution when nothing is in progress; an error from fn aborts the write.
	Update(ctx context.Context, userID string, fn func(*ExecutionSession) error) (*ExecutionSession, error)
	// Take removes and returns the active session, nil, nil when there is none.
	// Only one of several concurrent callers gets the session.
	Take(ctx context.Context, userID string) (*ExecutionSession, error)
}
