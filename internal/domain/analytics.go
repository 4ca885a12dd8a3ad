package domain

import (
	"context"
	"time"
)

// ProgressTrend is the coarse direction of recent volume
type ProgressTrend string

const (
	TrendIncreasing ProgressTrend = "increasing"
	TrendDecreasing ProgressTrend = "decreasing"
	TrendStable     ProgressTrend = "stable"
)

// HistoryFilter narrows the records fed into analytics.
// Zero values mean "not set"; Limit and Offset are ignored when <= 0.
type HistoryFilter struct {
	UserID       string     `json:"userId,omitempty"`
	WorkoutID    string     `json:"workoutId,omitempty"`
	ExerciseID   string     `json:"exerciseId,omitempty"`
	ExerciseName string     `json:"exerciseName,omitempty"`
	DateFrom     *time.Time `json:"dateFrom,omitempty"`
	DateTo       *time.Time `json:"dateTo,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}

// HasExerciseFilter reports whether an exercise id or name was requested
func (f HistoryFilter) HasExerciseFilter() bool {
	return f.ExerciseID != "" || f.ExerciseName != ""
}

type SetProgressData struct {
	SetNumber   int      `json:"setNumber"`
	Weight      *float64 `json:"weight,omitempty"`
	Reps        int      `json:"reps"`
	IsCompleted bool     `json:"isCompleted"`
	Volume      float64  `json:"volume"`
}

// ExerciseSessionData is one exercise as performed in one workout.
// TotalVolume counts every set, completed or not.
type ExerciseSessionData struct {
	Date        time.Time         `json:"date"`
	WorkoutName string            `json:"workoutName"`
	Sets        []SetProgressData `json:"sets"`
	MaxWeight   float64           `json:"maxWeight"`
	TotalVolume float64           `json:"totalVolume"`
	AverageReps float64           `json:"averageReps"`
}

// ExerciseProgressData holds an exercise's sessions oldest first
type ExerciseProgressData struct {
	ExerciseID   string                `json:"exerciseId"`
	ExerciseName string                `json:"exerciseName"`
	Sessions     []ExerciseSessionData `json:"sessions"`
}

// ExerciseAnalytics aggregates an exercise across sessions.
// Totals and averages only count completed sets.
type ExerciseAnalytics struct {
	ExerciseID    string               `json:"exerciseId"`
	ExerciseName  string               `json:"exerciseName"`
	TotalSessions int                  `json:"totalSessions"`
	TotalSets     int                  `json:"totalSets"`
	TotalReps     int                  `json:"totalReps"`
	TotalVolume   float64              `json:"totalVolume"`
	AverageWeight float64              `json:"averageWeight"`
	MaxWeight     float64              `json:"maxWeight"`
	AverageReps   float64              `json:"averageReps"`
	LastSession   *ExerciseSessionData `json:"lastSession,omitempty"`
	BestSession   *ExerciseSessionData `json:"bestSession,omitempty"`
	ProgressTrend ProgressTrend        `json:"progressTrend"`
}

type WorkoutAnalytics struct {
	TotalWorkouts   int                   `json:"totalWorkouts"`
	TotalDuration   int                   `json:"totalDuration"`   // minutes
	AverageDuration float64               `json:"averageDuration"` // minutes, over workouts with a duration
	TotalVolume     float64               `json:"totalVolume"`     // completed sets only
	WeeklyFrequency float64               `json:"weeklyFrequency"`
	LastWorkout     *WorkoutHistoryRecord `json:"lastWorkout,omitempty"`
	BestWorkout     *WorkoutHistoryRecord `json:"bestWorkout,omitempty"`
}

// HistoryAnalytics is everything derived from one snapshot of history records
type HistoryAnalytics struct {
	FilteredHistories []*WorkoutHistoryRecord `json:"filteredHistories"`
	ExerciseProgress  []ExerciseProgressData  `json:"exerciseProgress"`
	ExerciseAnalytics []ExerciseAnalytics     `json:"exerciseAnalytics"`
	WorkoutAnalytics  WorkoutAnalytics        `json:"workoutAnalytics"`
}

// ClientOverview is a coach's summary of one member
type ClientOverview struct {
	MemberID         string           `json:"memberId"`
	Workouts         WorkoutAnalytics `json:"workouts"`
	IncreasingCount  int              `json:"increasingCount"`
	DecreasingCount  int              `json:"decreasingCount"`
	StableCount      int              `json:"stableCount"`
	TrackedExercises int              `json:"trackedExercises"`
}

// AnalyticsCache memoizes derived analytics per user. Every entry belongs to a
// generation of the user's history; InvalidateUser starts a new generation,
// so a result computed from an older snapshot can never be served again.
type AnalyticsCache interface {
	// Generation returns the user's current history generation
	Generation(ctx context.Context, userID string) (int64, error)
	// GetAnalytics returns nil, nil on miss
	GetAnalytics(ctx context.Context, userID string, generation int64, filter HistoryFilter) (*HistoryAnalytics, error)
	SetAnalytics(ctx context.Context, userID string, generation int64, filter HistoryFilter, analytics *HistoryAnalytics, ttl time.Duration) error
	InvalidateUser(ctx context.Context, userID string) error
}
