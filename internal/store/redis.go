package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "meddesert"

// Key builds the flat key a namespaced entry is stored under.
func Key(namespace, key string) string {
	return keyPrefix + ":" + namespace + ":" + key
}

type RedisKVStore struct {
	client *redis.Client
}

// NewRedisKVStore connects to the Redis server at url (redis://[:password@]host:port/db).
func NewRedisKVStore(ctx context.Context, url string) (*RedisKVStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisKVStore{client: client}, nil
}

func (s *RedisKVStore) Get(ctx context.Context, namespace, key string) (string, error) {
	v, err := s.client.Get(ctx, Key(namespace, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, nil
}

func (s *RedisKVStore) Set(ctx context.Context, namespace, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, Key(namespace, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *RedisKVStore) Delete(ctx context.Context, namespace, key string) error {
	if err := s.client.Del(ctx, Key(namespace, key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *RedisKVStore) Close() error {
	return s.client.Close()
}
