package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/desertthunder/sesh/internal/models"
	"github.com/desertthunder/sesh/internal/shared"
	"github.com/redis/go-redis/v9"
)

// RedisExpiryStore implements session.ExpiryStore on redis.
//
// Each kind lives at <prefix>:expiry:<kind> holding epoch milliseconds, and the key is set to lapse at the
// expiry instant so a lapsed credential simply has no record.
type RedisExpiryStore struct {
	client *redis.Client
	prefix string
}

// NewRedisClient creates a [redis.Client] from conf and checks it is reachable.
func NewRedisClient(ctx context.Context, conf shared.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: conf.Addr, Password: conf.Password, DB: conf.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis at %s: %w", shared.ErrServiceUnavailable, conf.Addr, err)
	}
	return client, nil
}

// NewRedisExpiryStore creates a [RedisExpiryStore]; prefix defaults to "sesh".
func NewRedisExpiryStore(client *redis.Client, prefix string) *RedisExpiryStore {
	if prefix == "" {
		prefix = "sesh"
	}
	return &RedisExpiryStore{client: client, prefix: prefix}
}

func (s *RedisExpiryStore) key(kind models.Kind) string {
	return s.prefix + ":expiry:" + string(kind)
}

// Load returns the records that have not lapsed, in kind order.
func (s *RedisExpiryStore) Load(ctx context.Context) ([]models.ExpiryRecord, error) {
	keys := make([]string, len(models.Kinds))
	for i, kind := range models.Kinds {
		keys[i] = s.key(kind)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read expiry records: %w", err)
	}

	var records []models.ExpiryRecord
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed expiry at %s: %w", keys[i], err)
		}
		records = append(records, models.RecordFromMillis(models.Kinds[i], ms))
	}
	return records, nil
}

// Get retrieves the record for kind.
func (s *RedisExpiryStore) Get(ctx context.Context, kind models.Kind) (models.ExpiryRecord, error) {
	ms, err := s.client.Get(ctx, s.key(kind)).Int64()
	if errors.Is(err, redis.Nil) {
		return models.ExpiryRecord{}, fmt.Errorf("expiry record not found: %s", kind)
	}
	if err != nil {
		return models.ExpiryRecord{}, fmt.Errorf("failed to read expiry record: %w", err)
	}
	return models.RecordFromMillis(kind, ms), nil
}

// Put writes rec and sets its key to lapse at rec.ExpiresAt.
func (s *RedisExpiryStore) Put(ctx context.Context, rec models.ExpiryRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	key := s.key(rec.Kind)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, rec.Millis(), 0)
		pipe.PExpireAt(ctx, key, rec.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write expiry record: %w", err)
	}
	return nil
}

// Clear deletes every kind's key.
func (s *RedisExpiryStore) Clear(ctx context.Context) error {
	keys := make([]string, len(models.Kinds))
	for i, kind := range models.Kinds {
		keys[i] = s.key(kind)
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear expiry records: %w", err)
	}
	return nil
}
