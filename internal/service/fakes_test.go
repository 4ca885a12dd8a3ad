package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mansoorceksport/liftlog/internal/domain"
)

type fakeHistoryRepo struct {
	mu        sync.Mutex
	records   []*domain.WorkoutHistoryRecord
	listCalls int
	createErr error
	// createGate, when set, holds every Create until it is closed
	createGate chan struct{}
	// afterList runs once a list query has its snapshot, outside the lock
	afterList func()
}

func (r *fakeHistoryRepo) Create(_ context.Context, record *domain.WorkoutHistoryRecord) error {
	if r.createGate != nil {
		<-r.createGate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	record.ID = fmt.Sprintf("h%d", len(r.records)+1)
	record.CreatedAt = time.Now()
	r.records = append(r.records, record)
	return nil
}

func (r *fakeHistoryRepo) GetByID(_ context.Context, id string) (*domain.WorkoutHistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, domain.ErrHistoryNotFound
}

func (r *fakeHistoryRepo) ListByUser(_ context.Context, userID string) ([]*domain.WorkoutHistoryRecord, error) {
	return r.list(func(rec *domain.WorkoutHistoryRecord) bool { return rec.UserID == userID }), nil
}

func (r *fakeHistoryRepo) ListByWorkout(_ context.Context, workoutID string) ([]*domain.WorkoutHistoryRecord, error) {
	return r.list(func(rec *domain.WorkoutHistoryRecord) bool { return rec.WorkoutID == workoutID }), nil
}

func (r *fakeHistoryRepo) list(keep func(*domain.WorkoutHistoryRecord) bool) []*domain.WorkoutHistoryRecord {
	r.mu.Lock()
	r.listCalls++
	out := []*domain.WorkoutHistoryRecord{}
	for _, rec := range r.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	hook := r.afterList
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExecutedAt.After(out[j].ExecutedAt) })
	return out
}

type fakeAnalyticsCache struct {
	mu          sync.Mutex
	entries     map[string]*domain.HistoryAnalytics
	generations map[string]int64
}

func newFakeAnalyticsCache() *fakeAnalyticsCache {
	return &fakeAnalyticsCache{
		entries:     map[string]*domain.HistoryAnalytics{},
		generations: map[string]int64{},
	}
}

func (c *fakeAnalyticsCache) key(userID string, generation int64, filter domain.HistoryFilter) string {
	return fmt.Sprintf("%s|%d|%+v", userID, generation, filter)
}

func (c *fakeAnalyticsCache) Generation(_ context.Context, userID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[userID], nil
}

func (c *fakeAnalyticsCache) GetAnalytics(_ context.Context, userID string, generation int64, filter domain.HistoryFilter) (*domain.HistoryAnalytics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[c.key(userID, generation, filter)], nil
}

func (c *fakeAnalyticsCache) SetAnalytics(_ context.Context, userID string, generation int64, filter domain.HistoryFilter, analytics *domain.HistoryAnalytics, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(userID, generation, filter)] = analytics
	return nil
}

func (c *fakeAnalyticsCache) InvalidateUser(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[userID]++
	for k := range c.entries {
		if strings.HasPrefix(k, userID+"|") {
			delete(c.entries, k)
		}
	}
	return nil
}

type fakePlanRepo struct {
	plans map[string]*domain.WorkoutPlan
	next  int
}

func newFakePlanRepo(plans ...*domain.WorkoutPlan) *fakePlanRepo {
	r := &fakePlanRepo{plans: map[string]*domain.WorkoutPlan{}}
	for _, p := range plans {
		r.plans[p.ID] = p
	}
	return r
}

func (r *fakePlanRepo) Create(_ context.Context, plan *domain.WorkoutPlan) error {
	r.next++
	plan.ID = fmt.Sprintf("plan-%d", r.next)
	r.plans[plan.ID] = plan
	return nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id string) (*domain.WorkoutPlan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlanRepo) ListByMember(_ context.Context, memberID string) ([]*domain.WorkoutPlan, error) {
	out := []*domain.WorkoutPlan{}
	for _, p := range r.plans {
		if p.MemberID == memberID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) ListByCoach(_ context.Context, coachID string) ([]*domain.WorkoutPlan, error) {
	out := []*domain.WorkoutPlan{}
	for _, p := range r.plans {
		if p.CoachID == coachID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) Update(_ context.Context, plan *domain.WorkoutPlan) error {
	if _, ok := r.plans[plan.ID]; !ok {
		return domain.ErrPlanNotFound
	}
	r.plans[plan.ID] = plan
	return nil
}

func (r *fakePlanRepo) Delete(_ context.Context, id string) error {
	delete(r.plans, id)
	return nil
}

type fakeExecutionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.ExecutionSession
}

func newFakeExecutionStore() *fakeExecutionStore {
	return &fakeExecutionStore{sessions: map[string]*domain.ExecutionSession{}}
}

func (s *fakeExecutionStore) Create(_ context.Context, session *domain.ExecutionSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.UserID == "" {
		return errors.New("execution session has no user")
	}
	if _, ok := s.sessions[session.UserID]; ok {
		return domain.ErrExecutionInProgress
	}
	s.sessions[session.UserID] = cloneSession(session)
	return nil
}

func (s *fakeExecutionStore) Get(_ context.Context, userID string) (*domain.ExecutionSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	return cloneSession(session), nil
}

func (s *fakeExecutionStore) Update(_ context.Context, userID string, fn func(*domain.ExecutionSession) error) (*domain.ExecutionSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		return nil, domain.ErrNoActiveExecution
	}
	updated := cloneSession(session)
	if err := fn(updated); err != nil {
		return nil, err
	}
	s.sessions[userID] = cloneSession(updated)
	return updated, nil
}

func (s *fakeExecutionStore) Take(_ context.Context, userID string) (*domain.ExecutionSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	delete(s.sessions, userID)
	return session, nil
}

// cloneSession mimics the serialization round trip of a real store
func cloneSession(session *domain.ExecutionSession) *domain.ExecutionSession {
	cp := *session
	cp.Exercises = make([]domain.ExecutionExercise, len(session.Exercises))
	for i, ex := range session.Exercises {
		sets := make([]domain.RawSet, len(ex.Sets))
		copy(sets, ex.Sets)
		ex.Sets = sets
		cp.Exercises[i] = ex
	}
	return &cp
}
