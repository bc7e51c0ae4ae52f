package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the connection to the Redis server
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore persists tickets in an external Redis server. Atomicity of id
// allocation and field writes is delegated to Redis itself; the store holds
// no in-process mutable state.
type RedisStore struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed ticket store
func NewRedis(opts RedisOptions) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
	}
}

// NextID atomically increments and returns the ticket id counter
func (s *RedisStore) NextID(ctx context.Context) (int64, error) {
	id, err := s.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", counterKey, err)
	}
	return id, nil
}

// SetFields writes the named fields of the ticket hash
func (s *RedisStore) SetFields(ctx context.Context, id int64, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.client.HSet(ctx, ticketKey(id), fields).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", ticketKey(id), err)
	}
	return nil
}

// GetFields returns all fields of the ticket hash; empty means absent
func (s *RedisStore) GetFields(ctx context.Context, id int64) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, ticketKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", ticketKey(id), err)
	}
	return fields, nil
}

// Delete removes the ticket hash and reports whether it existed
func (s *RedisStore) Delete(ctx context.Context, id int64) (bool, error) {
	removed, err := s.client.Del(ctx, ticketKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("del %s: %w", ticketKey(id), err)
	}
	return removed > 0, nil
}

// Ping verifies the Redis server is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
