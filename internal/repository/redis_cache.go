package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/liftlog/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	analyticsKeyPrefix    = "analytics:"
	analyticsGenKeyPrefix = "analytics_gen:"
)

var ErrCacheMiss = errors.New("cache miss")

// RedisCacheRepository implements domain.AnalyticsCache using Redis
type RedisCacheRepository struct {
	client *redis.Client
}

// NewRedisCacheRepository creates a new Redis cache repository
func NewRedisCacheRepository(client *redis.Client) *RedisCacheRepository {
	return &RedisCacheRepository{
		client: client,
	}
}

// analyticsKey scopes the filter hash under the user and generation so a whole
// user can be dropped at once
func analyticsKey(userID string, generation int64, filter domain.HistoryFilter) (string, error) {
	data, err := json.Marshal(filter)
	if err != nil {
		return "", fmt.Errorf("failed to marshal filter: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s%s:%d:%s", analyticsKeyPrefix, userID, generation, hex.EncodeToString(sum[:8])), nil
}

// Generation reads the user's counter; a user never invalidated is at 0
func (r *RedisCacheRepository) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := r.client.Get(ctx, analyticsGenKeyPrefix+userID).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read analytics generation: %w", err)
	}
	return gen, nil
}

// GetAnalytics returns the memoized analytics for a user and filter, nil on miss
func (r *RedisCacheRepository) GetAnalytics(ctx context.Context, userID string, generation int64, filter domain.HistoryFilter) (*domain.HistoryAnalytics, error) {
	key, err := analyticsKey(userID, generation, filter)
	if err != nil {
		return nil, err
	}

	var analytics domain.HistoryAnalytics
	if err := r.Get(ctx, key, &analytics); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &analytics, nil
}

// SetAnalytics memoizes analytics computed in the given generation with TTL
func (r *RedisCacheRepository) SetAnalytics(ctx context.Context, userID string, generation int64, filter domain.HistoryFilter, analytics *domain.HistoryAnalytics, ttl time.Duration) error {
	key, err := analyticsKey(userID, generation, filter)
	if err != nil {
		return err
	}
	return r.Set(ctx, key, analytics, ttl)
}

// InvalidateUser moves the user to a new generation, then drops the entries
// already written. Entries of older generations written later are unreachable
// and just expire.
func (r *RedisCacheRepository) InvalidateUser(ctx context.Context, userID string) error {
	if err := r.client.Incr(ctx, analyticsGenKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to bump analytics generation: %w", err)
	}

	pattern := analyticsKeyPrefix + userID + ":*"

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan analytics keys: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to invalidate analytics: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// =============================================================================
// Generic Cache Operations with OpenTelemetry Tracing
// =============================================================================

// Get retrieves a value from cache by key with OTel tracing
func (r *RedisCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Get",
		trace.WithAttributes(attribute.String("cache.key", key)),
	)
	defer span.End()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.String("cache.result", "miss"))
			return ErrCacheMiss
		}
		span.RecordError(err)
		return fmt.Errorf("redis get error: %w", err)
	}

	span.SetAttributes(attribute.String("cache.result", "hit"))
	if err := json.Unmarshal(data, dest); err != nil {
		span.RecordError(err)
		return fmt.Errorf("unmarshal error: %w", err)
	}

	return nil
}

// Set stores a value in cache with TTL and OTel tracing
func (r *RedisCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Set",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.Int64("cache.ttl_seconds", int64(ttl.Seconds())),
		),
	)
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}
