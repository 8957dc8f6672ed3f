package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kycflow/pkg/platform/sentinel"
)

const sessionKeyPrefix = "kycflow:session:"

// RedisStore keeps one hash per session. Every write refreshes the session's TTL.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (s *RedisStore) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	value, err := s.client.HGet(ctx, sessionKey(sessionID), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget %s: %w", key, errors.Join(err, sentinel.ErrUnavailable))
	}
	return value, nil
}

func (s *RedisStore) GetAll(ctx context.Context, sessionID string) (map[string][]byte, error) {
	values, err := s.client.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", errors.Join(err, sentinel.ErrUnavailable))
	}
	out := make(map[string][]byte, len(values))
	for key, value := range values {
		out[key] = []byte(value)
	}
	return out, nil
}

func (s *RedisStore) Put(ctx context.Context, sessionID, key string, value []byte) error {
	hash := sessionKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hash, key, value)
		if s.ttl > 0 {
			pipe.Expire(ctx, hash, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset %s: %w", key, errors.Join(err, sentinel.ErrUnavailable))
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", errors.Join(err, sentinel.ErrUnavailable))
	}
	return nil
}
