package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/liftlog/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	executionKeyPrefix = "execution:active:"
	// maxUpdateAttempts bounds optimistic retries when writers race on one session
	maxUpdateAttempts = 10
)

// RedisExecutionStore keeps each user's in-progress workout under a fixed key
// so the app can pick it up again after a restart
type RedisExecutionStore struct {
	client *redis.Client
	cache  *RedisCacheRepository
	ttl    time.Duration
}

func NewRedisExecutionStore(client *redis.Client, ttl time.Duration) *RedisExecutionStore {
	return &RedisExecutionStore{
		client: client,
		cache:  NewRedisCacheRepository(client),
		ttl:    ttl,
	}
}

func executionKey(userID string) string {
	return executionKeyPrefix + userID
}

// Create claims the user's slot with SET NX
func (s *RedisExecutionStore) Create(ctx context.Context, session *domain.ExecutionSession) error {
	if session.UserID == "" {
		return errors.New("execution session has no user")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}

	created, err := s.client.SetNX(ctx, executionKey(session.UserID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create execution state: %w", err)
	}
	if !created {
		return domain.ErrExecutionInProgress
	}
	return nil
}

// Get returns nil, nil when the user has nothing in progress
func (s *RedisExecutionStore) Get(ctx context.Context, userID string) (*domain.ExecutionSession, error) {
	var session domain.ExecutionSession
	if err := s.cache.Get(ctx, executionKey(userID), &session); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load execution state: %w", err)
	}
	return &session, nil
}

// Update is a WATCH/MULTI read-modify-write. A write that raced with another
// one is retried against the fresh state, so no logged set is lost.
func (s *RedisExecutionStore) Update(ctx context.Context, userID string, fn func(*domain.ExecutionSession) error) (*domain.ExecutionSession, error) {
	key := executionKey(userID)

	var updated *domain.ExecutionSession
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return domain.ErrNoActiveExecution
		}
		if err != nil {
			return fmt.Errorf("failed to load execution state: %w", err)
		}

		var session domain.ExecutionSession
		if err := json.Unmarshal(data, &session); err != nil {
			return fmt.Errorf("failed to unmarshal execution: %w", err)
		}
		if err := fn(&session); err != nil {
			return err
		}

		data, err = json.Marshal(&session)
		if err != nil {
			return fmt.Errorf("failed to marshal execution: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = &session
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("failed to update execution state: too much contention for user %s", userID)
}

// Take reads and deletes the state in one GETDEL
func (s *RedisExecutionStore) Take(ctx context.Context, userID string) (*domain.ExecutionSession, error) {
	data, err := s.client.GetDel(ctx, executionKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take execution state: %w", err)
	}

	var session domain.ExecutionSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
	}
	return &session, nil
}
