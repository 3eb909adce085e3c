// Package redis implements the store.KV contract on a remote Redis server.
//
// The adapter contract maps one-to-one onto Redis commands (HSET, HGETALL,
// SADD, SREM, DEL, SMEMBERS), so this is the production backend: the key
// space is shared with the rest of the meeting platform and survives relay
// restarts.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Config holds the Redis connection parameters.
type Config struct {
	// Address is the host:port of the Redis server.
	Address string `mapstructure:"address" yaml:"address"`

	// Password is the Redis AUTH password. Empty means no authentication.
	Password string `mapstructure:"password" yaml:"password,omitempty"`

	// DB is the Redis logical database number.
	DB int `mapstructure:"db" yaml:"db"`

	// DialTimeout bounds the initial connection attempt.
	// Default: 5s
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout,omitempty"`

	// ReadTimeout bounds individual read commands.
	// Default: 3s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout,omitempty"`

	// WriteTimeout bounds individual write commands.
	// Default: 3s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout,omitempty"`
}

// RedisStore is a store.KV backed by a remote Redis server.
type RedisStore struct {
	client *goredis.Client
}

// NewRedisStore connects to Redis and verifies the connection with a PING.
func NewRedisStore(ctx context.Context, cfg Config) (*RedisStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Address, err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests that
// provision their own server.
func NewRedisStoreWithClient(client *goredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// WriteFields upserts the hash at key with HSET.
func (s *RedisStore) WriteFields(ctx context.Context, key string, fields map[string]string) error {
	// HSET wants a flat key/value list
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}

	if err := s.client.HSet(ctx, key, args...).Err(); err != nil {
		return fmt.Errorf("HSET %s: %w", key, err)
	}
	return nil
}

// ReadAllFields reads the hash at key with HGETALL. Redis returns an empty
// map for missing keys, which matches the contract directly.
func (s *RedisStore) ReadAllFields(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("HGETALL %s: %w", key, err)
	}
	return fields, nil
}

// AddToSet adds member with SADD.
func (s *RedisStore) AddToSet(ctx context.Context, setKey, member string) error {
	if err := s.client.SAdd(ctx, setKey, member).Err(); err != nil {
		return fmt.Errorf("SADD %s %s: %w", setKey, member, err)
	}
	return nil
}

// RemoveFromSet removes member with SREM.
func (s *RedisStore) RemoveFromSet(ctx context.Context, setKey, member string) error {
	if err := s.client.SRem(ctx, setKey, member).Err(); err != nil {
		return fmt.Errorf("SREM %s %s: %w", setKey, member, err)
	}
	return nil
}

// DeleteKey deletes the key with DEL.
func (s *RedisStore) DeleteKey(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("DEL %s: %w", key, err)
	}
	return nil
}

// ListSetMembers lists the set with SMEMBERS.
func (s *RedisStore) ListSetMembers(ctx context.Context, setKey string) ([]string, error) {
	members, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("SMEMBERS %s: %w", setKey, err)
	}
	return members, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
