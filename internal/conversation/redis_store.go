package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

const sessionKeyPrefix = "session:conversation:"

// Compile-time check to ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)

// RedisStore keeps serialized conversation state in Redis so sessions survive
// a process restart and can be shared across instances. Entries expire after
// the configured TTL of inactivity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisSessionStore"),
	}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func (s *RedisStore) Get(ctx context.Context, token string) (*State, error) {
	payload, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: session %q", models.ErrNotFound, token)
		}
		s.logger.Error("Failed to read session from redis", zap.String("token", token), zap.Error(err))
		return nil, fmt.Errorf("failed to read session from redis: %w", err)
	}
	state, err := Deserialize(payload)
	if err != nil {
		s.logger.Error("Stored session payload is corrupt", zap.String("token", token), zap.Error(err))
		return nil, err
	}
	return state, nil
}

func (s *RedisStore) Put(ctx context.Context, token string, state *State) error {
	payload, err := state.Serialize()
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKey(token), payload, s.ttl).Err(); err != nil {
		s.logger.Error("Failed to store session in redis", zap.String("token", token), zap.Error(err))
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	s.logger.Debug("Stored session", zap.String("token", token), zap.Int("messages", state.MessageCount()))
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		s.logger.Error("Failed to delete session from redis", zap.String("token", token), zap.Error(err))
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}
