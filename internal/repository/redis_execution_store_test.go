package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mansoorceksport/liftlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(userID string) *domain.ExecutionSession {
	return &domain.ExecutionSession{
		ID:        "01HQXYZ",
		UserID:    userID,
		WorkoutID: "plan-1",
		StartTime: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Exercises: []domain.ExecutionExercise{{
			Plan: domain.ExercisePlan{ID: "bench", Name: "Bench", Sets: 3, Reps: "8-12", Rest: "90s"},
			Sets: []domain.RawSet{{ID: "s1", Weight: 60, Reps: 10, Completed: true}},
		}},
	}
}

func TestRedisExecutionStore(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisExecutionStore(client, time.Hour)
	ctx := context.Background()

	got, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	session := testSession("user-1")
	require.NoError(t, store.Create(ctx, session))
	assert.True(t, mr.Exists("execution:active:user-1"))
	assert.Equal(t, time.Hour, mr.TTL("execution:active:user-1"))

	got, err = store.Get(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, session.ID, got.ID)
	assert.True(t, session.StartTime.Equal(got.StartTime))
	assert.Nil(t, got.EndTime)
	assert.Equal(t, session.Exercises, got.Exercises)

	taken, err := store.Take(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, taken)
	assert.Equal(t, session.ID, taken.ID)
	assert.False(t, mr.Exists("execution:active:user-1"))

	taken, err = store.Take(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, taken)
}

func TestRedisExecutionStore_CreateOnlyOnce(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewRedisExecutionStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testSession("user-1")))

	second := testSession("user-1")
	second.ID = "01HQOTHER"
	assert.ErrorIs(t, store.Create(ctx, second), domain.ErrExecutionInProgress)

	got, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "01HQXYZ", got.ID, "first session is kept")
}

func TestRedisExecutionStore_RequiresUser(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewRedisExecutionStore(client, time.Hour)

	assert.Error(t, store.Create(context.Background(), &domain.ExecutionSession{}))
}

func TestRedisExecutionStore_Update(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisExecutionStore(client, time.Hour)
	ctx := context.Background()

	_, err := store.Update(ctx, "user-1", func(*domain.ExecutionSession) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNoActiveExecution)

	require.NoError(t, store.Create(ctx, testSession("user-1")))
	mr.FastForward(30 * time.Minute)

	updated, err := store.Update(ctx, "user-1", func(s *domain.ExecutionSession) error {
		s.Exercises[0].Notes = "paused reps"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "paused reps", updated.Exercises[0].Notes)
	assert.Equal(t, time.Hour, mr.TTL("execution:active:user-1"), "activity refreshes the TTL")

	rejected := errors.New("rejected")
	_, err = store.Update(ctx, "user-1", func(s *domain.ExecutionSession) error {
		s.Exercises[0].Notes = "never stored"
		return rejected
	})
	assert.ErrorIs(t, err, rejected)

	got, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "paused reps", got.Exercises[0].Notes)
}

func TestRedisExecutionStore_ConcurrentUpdatesKeepEverySet(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewRedisExecutionStore(client, time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, testSession("user-1")))

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "user-1", func(s *domain.ExecutionSession) error {
				s.Exercises[0].Sets = append(s.Exercises[0].Sets, domain.RawSet{ID: fmt.Sprintf("w%d", i), Reps: 5})
				return nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, got.Exercises[0].Sets, writers+1)
}

func TestRedisExecutionStore_ConcurrentTakeHandsOutOnce(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewRedisExecutionStore(client, time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, testSession("user-1")))

	const takers = 5
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got int
	)
	for i := 0; i < takers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := store.Take(ctx, "user-1")
			assert.NoError(t, err)
			if session != nil {
				mu.Lock()
				got++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, got)
}
