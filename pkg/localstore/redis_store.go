package localstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps values in Redis under "<prefix>:<key>" without expiration.
type RedisStore struct {
	db     redis.UniversalClient
	prefix string
}

// NewRedisStore wraps an existing client. An empty prefix stores bare keys.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{db: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	val, err := s.db.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return val, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.db.Set(ctx, s.key(key), value, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.db.Del(ctx, s.key(key)).Err()
}

// Close terminates the underlying connection.
func (s *RedisStore) Close() error {
	return s.db.Close()
}

func (s *RedisStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}
