// Package redisnonce provides a Redis-backed nonce store shared by every
// process that may verify callbacks for the same deployment.
package redisnonce

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultPrefix = "idsite:nonce"

// Store enforces single-use token ids through Redis SET NX, which performs
// the existence check and the write as one server-side operation.
type Store struct {
	client *redis.Client
	prefix string
}

// New wraps an existing Redis client. An empty prefix falls back to
// "idsite:nonce".
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Connect dials Redis at the given address and verifies the connection
// before returning a Store.
func Connect(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return New(client, ""), nil
}

// CheckAndSet implements idsite.NonceStore.
func (s *Store) CheckAndSet(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+":"+key, value, ttl).Result()
}

// Close releases the underlying Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
