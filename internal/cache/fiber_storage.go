package cache

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const storageOpTimeout = 3 * time.Second

// FiberStorage backs fiber middleware state (sessions, idempotency replays)
// with Redis, each user under its own namespace.
type FiberStorage struct {
	client *redis.Client
	prefix string
}

var _ fiber.Storage = (*FiberStorage)(nil)

// FiberStorage returns a storage under namespace sharing r's connection.
func (r *Redis) FiberStorage(namespace string) *FiberStorage {
	return &FiberStorage{client: r.client, prefix: r.prefix + namespace + ":"}
}

// Client exposes the connection for stores kept outside this package.
func (r *Redis) Client() *redis.Client {
	return r.client
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storageOpTimeout)
}

// Get returns nil without error for a missing key.
func (s *FiberStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := opContext()
	defer cancel()
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Set stores val; a zero exp keeps it until deleted.
func (s *FiberStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := opContext()
	defer cancel()
	return s.client.Set(ctx, s.prefix+key, val, exp).Err()
}

func (s *FiberStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := opContext()
	defer cancel()
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Reset drops every key in the namespace.
func (s *FiberStorage) Reset() error {
	ctx, cancel := opContext()
	defer cancel()
	return deletePrefix(ctx, s.client, s.prefix)
}

// Close is a no-op; the connection belongs to the Redis store.
func (s *FiberStorage) Close() error {
	return nil
}
