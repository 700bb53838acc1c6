package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a SessionStore backend for hosts that expire sessions
// server-side: every value carries a TTL refreshed on write.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// OpenRedisStore connects to redisURL and verifies the connection.
func OpenRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("sessions: invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("sessions: redis unreachable: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	slog.Info("session redis connected", slog.String("addr", opts.Addr), slog.Duration("ttl", ttl))
	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

func redisKey(sessionID, key string) string {
	return "mytube:sess:" + sessionID + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	val, err := s.rdb.Get(ctx, redisKey(sessionID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sessions: get %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, sessionID, key, value string) error {
	if err := s.rdb.Set(ctx, redisKey(sessionID, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("sessions: set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID, key string) error {
	if err := s.rdb.Del(ctx, redisKey(sessionID, key)).Err(); err != nil {
		return fmt.Errorf("sessions: delete %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
