// Package redis provides a KeyValueStore backed by a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/echoverse/echoverse/internal/ports"
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces every key, e.g. "echoverse:".
	Prefix string

	// TTL expires keys after each write; zero keeps them forever.
	TTL time.Duration
}

// Store keeps values as plain Redis strings.
type Store struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// Open connects and pings the server.
func Open(ctx context.Context, opts Options) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client, prefix: opts.Prefix, ttl: opts.TTL}, nil
}

// Key returns the Redis key used for key.
func (s *Store) Key(key string) string {
	return s.prefix + key
}

// Get implements ports.KeyValueStore.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.Key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

// Set implements ports.KeyValueStore.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.Key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete implements ports.KeyValueStore.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.Key(key)).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close implements ports.KeyValueStore.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ ports.KeyValueStore = (*Store)(nil)
