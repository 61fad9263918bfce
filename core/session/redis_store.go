package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	userKeyPrefix  = "session:user:"
	flashKeyPrefix = "session:flash:"
)

// redisStore implements Store on Redis. Sessions carry no expiry; they live
// until explicit logout.
type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) SetUser(ctx context.Context, sid string, userID int64) error {
	if err := s.client.Set(ctx, userKeyPrefix+sid, userID, 0).Err(); err != nil {
		return fmt.Errorf("failed to set session user: %w", err)
	}
	return nil
}

func (s *redisStore) User(ctx context.Context, sid string) (int64, bool, error) {
	userID, err := s.client.Get(ctx, userKeyPrefix+sid).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get session user: %w", err)
	}
	return userID, true, nil
}

func (s *redisStore) Clear(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, userKeyPrefix+sid, flashKeyPrefix+sid).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *redisStore) AddFlash(ctx context.Context, sid, message string) error {
	if err := s.client.RPush(ctx, flashKeyPrefix+sid, message).Err(); err != nil {
		return fmt.Errorf("failed to queue flash: %w", err)
	}
	return nil
}

func (s *redisStore) PopFlashes(ctx context.Context, sid string) ([]string, error) {
	key := flashKeyPrefix + sid
	pipe := s.client.TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to pop flashes: %w", err)
	}
	return rangeCmd.Val(), nil
}
