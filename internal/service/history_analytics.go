package service

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mansoorceksport/liftlog/internal/domain"
)

const (
	trendWindow = 3 // sessions compared when classifying a trend
	week        = 7 * 24 * time.Hour
)

// AggregateHistory derives every analytics view from one snapshot of history
// records. It is deterministic and leaves the input slice untouched, so callers
// can simply recompute whenever the records or the filter change.
func AggregateHistory(histories []*domain.WorkoutHistoryRecord, filter domain.HistoryFilter) *domain.HistoryAnalytics {
	filtered := FilterHistories(histories, filter)
	progress := buildExerciseProgress(filtered, filter)

	exerciseAnalytics := make([]domain.ExerciseAnalytics, 0, len(progress))
	for _, p := range progress {
		exerciseAnalytics = append(exerciseAnalytics, analyzeExercise(p))
	}

	return &domain.HistoryAnalytics{
		FilteredHistories: filtered,
		ExerciseProgress:  progress,
		ExerciseAnalytics: exerciseAnalytics,
		WorkoutAnalytics:  analyzeWorkouts(filtered),
	}
}

// FilterHistories applies owner, date and exercise filters, orders newest first
// and then pages with Offset before Limit.
func FilterHistories(histories []*domain.WorkoutHistoryRecord, filter domain.HistoryFilter) []*domain.WorkoutHistoryRecord {
	result := make([]*domain.WorkoutHistoryRecord, 0, len(histories))
	for _, h := range histories {
		if h == nil {
			continue
		}
		if filter.UserID != "" && h.UserID != filter.UserID {
			continue
		}
		if filter.WorkoutID != "" && h.WorkoutID != filter.WorkoutID {
			continue
		}
		if filter.DateFrom != nil && h.ExecutedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && h.ExecutedAt.After(*filter.DateTo) {
			continue
		}
		if filter.HasExerciseFilter() && !historyHasExercise(h, filter) {
			continue
		}
		result = append(result, h)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ExecutedAt.After(result[j].ExecutedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*domain.WorkoutHistoryRecord{}
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result
}

func historyHasExercise(h *domain.WorkoutHistoryRecord, filter domain.HistoryFilter) bool {
	for i := range h.Exercises {
		if exerciseMatches(&h.Exercises[i], filter) {
			return true
		}
	}
	return false
}

// exerciseMatches is an exact id match or a case-insensitive name substring match
func exerciseMatches(ex *domain.HistoryExercise, filter domain.HistoryFilter) bool {
	if filter.ExerciseID != "" && ex.ExerciseID == filter.ExerciseID {
		return true
	}
	if filter.ExerciseName != "" &&
		strings.Contains(strings.ToLower(ex.ExerciseName), strings.ToLower(filter.ExerciseName)) {
		return true
	}
	return false
}

// buildExerciseProgress groups exercises by id. Groups keep first-seen order,
// sessions inside a group are oldest first for charting and trend detection.
func buildExerciseProgress(filtered []*domain.WorkoutHistoryRecord, filter domain.HistoryFilter) []domain.ExerciseProgressData {
	var order []string
	groups := make(map[string]*domain.ExerciseProgressData)

	for _, h := range filtered {
		for i := range h.Exercises {
			ex := &h.Exercises[i]
			if filter.HasExerciseFilter() && !exerciseMatches(ex, filter) {
				continue
			}

			group, ok := groups[ex.ExerciseID]
			if !ok {
				group = &domain.ExerciseProgressData{
					ExerciseID:   ex.ExerciseID,
					ExerciseName: ex.ExerciseName,
				}
				groups[ex.ExerciseID] = group
				order = append(order, ex.ExerciseID)
			}
			group.Sessions = append(group.Sessions, buildSession(h, ex))
		}
	}

	progress := make([]domain.ExerciseProgressData, 0, len(order))
	for _, id := range order {
		group := groups[id]
		sort.SliceStable(group.Sessions, func(i, j int) bool {
			return group.Sessions[i].Date.Before(group.Sessions[j].Date)
		})
		progress = append(progress, *group)
	}
	return progress
}

// buildSession summarizes every set regardless of completion
func buildSession(h *domain.WorkoutHistoryRecord, ex *domain.HistoryExercise) domain.ExerciseSessionData {
	session := domain.ExerciseSessionData{
		Date:        h.ExecutedAt,
		WorkoutName: h.WorkoutName,
		Sets:        make([]domain.SetProgressData, 0, len(ex.Sets)),
	}

	totalReps := 0
	for _, s := range ex.Sets {
		volume := s.Volume()
		session.Sets = append(session.Sets, domain.SetProgressData{
			SetNumber:   s.SetNumber,
			Weight:      s.Weight,
			Reps:        s.Reps,
			IsCompleted: s.IsCompleted,
			Volume:      volume,
		})
		session.MaxWeight = math.Max(session.MaxWeight, s.WeightOrZero())
		session.TotalVolume += volume
		totalReps += s.Reps
	}

	if len(ex.Sets) > 0 {
		session.AverageReps = float64(totalReps) / float64(len(ex.Sets))
	}
	return session
}

// analyzeExercise aggregates completed sets only
func analyzeExercise(p domain.ExerciseProgressData) domain.ExerciseAnalytics {
	a := domain.ExerciseAnalytics{
		ExerciseID:    p.ExerciseID,
		ExerciseName:  p.ExerciseName,
		TotalSessions: len(p.Sessions),
		ProgressTrend: progressTrend(p.Sessions),
	}

	var weightSum float64
	weighted := 0
	for _, session := range p.Sessions {
		for _, s := range session.Sets {
			if !s.IsCompleted {
				continue
			}
			a.TotalSets++
			a.TotalReps += s.Reps
			a.TotalVolume += s.Volume
			if s.Weight != nil && *s.Weight > 0 {
				weightSum += *s.Weight
				weighted++
				a.MaxWeight = math.Max(a.MaxWeight, *s.Weight)
			}
		}
	}

	if weighted > 0 {
		a.AverageWeight = weightSum / float64(weighted)
	}
	if a.TotalSets > 0 {
		a.AverageReps = float64(a.TotalReps) / float64(a.TotalSets)
	}

	if n := len(p.Sessions); n > 0 {
		last := p.Sessions[n-1]
		a.LastSession = &last

		best := p.Sessions[0]
		for _, s := range p.Sessions[1:] {
			if s.TotalVolume > best.TotalVolume {
				best = s
			}
		}
		a.BestSession = &best
	}
	return a
}

// progressTrend compares the newest session's volume with the oldest of the
// last few sessions
func progressTrend(sessions []domain.ExerciseSessionData) domain.ProgressTrend {
	if len(sessions) < 2 {
		return domain.TrendStable
	}

	window := sessions
	if len(window) > trendWindow {
		window = window[len(window)-trendWindow:]
	}

	delta := window[len(window)-1].TotalVolume - window[0].TotalVolume
	switch {
	case delta > 0:
		return domain.TrendIncreasing
	case delta < 0:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

func analyzeWorkouts(filtered []*domain.WorkoutHistoryRecord) domain.WorkoutAnalytics {
	a := domain.WorkoutAnalytics{TotalWorkouts: len(filtered)}
	if len(filtered) == 0 {
		return a
	}

	timed := 0
	earliest, latest := filtered[0].ExecutedAt, filtered[0].ExecutedAt
	best, bestDuration := filtered[0], filtered[0].DurationOrZero()

	for _, h := range filtered {
		if d := h.DurationOrZero(); d > 0 {
			a.TotalDuration += d
			timed++
		}
		if h.DurationOrZero() > bestDuration {
			best, bestDuration = h, h.DurationOrZero()
		}
		if h.ExecutedAt.Before(earliest) {
			earliest = h.ExecutedAt
		}
		if h.ExecutedAt.After(latest) {
			latest = h.ExecutedAt
		}
		for _, ex := range h.Exercises {
			for _, s := range ex.Sets {
				if s.IsCompleted {
					a.TotalVolume += s.Volume()
				}
			}
		}
	}

	if timed > 0 {
		a.AverageDuration = float64(a.TotalDuration) / float64(timed)
	}

	if span := latest.Sub(earliest); span > 0 {
		weeks := math.Ceil(float64(span) / float64(week))
		a.WeeklyFrequency = float64(a.TotalWorkouts) / weeks
	}

	a.LastWorkout = filtered[0]
	a.BestWorkout = best
	return a
}
