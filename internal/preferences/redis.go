package preferences

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pharmago/internal/model"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// redisStore implements Store on Redis strings keyed {prefix}:{userId}:{key}.
type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisStore creates a Redis-backed preference store. A zero ttl keeps
// values until overwritten.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration, logger zerolog.Logger) Store {
	return &redisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With().Str("repository", "preferences-redis").Logger(),
	}
}

// Connect opens a Redis client and checks it responds.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (s *redisStore) key(userID, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, userID, key)
}

func (s *redisStore) Get(ctx context.Context, userID, key string, dst any) (bool, error) {
	if !ValidKey(key) {
		return false, model.ErrInvalidPreference
	}

	data, err := s.client.Get(ctx, s.key(userID, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Str("key", key).
			Msg("failed to read preference")
		return false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}

	return true, decode(key, data, dst)
}

func (s *redisStore) Put(ctx context.Context, userID, key string, value any) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key(userID, key), data, s.ttl).Err(); err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Str("key", key).
			Msg("failed to write preference")
		return fmt.Errorf("failed to write preference %s: %w", key, err)
	}

	s.logger.Debug().Str("user_id", userID).Str("key", key).Msg("preference stored")

	return nil
}
