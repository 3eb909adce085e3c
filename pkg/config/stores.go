package config

import (
	"context"
	"fmt"

	"github.com/iamdhrv/bigbluebutton/internal/logger"
	"github.com/iamdhrv/bigbluebutton/pkg/store"
	"github.com/iamdhrv/bigbluebutton/pkg/store/badger"
	"github.com/iamdhrv/bigbluebutton/pkg/store/memory"
	"github.com/iamdhrv/bigbluebutton/pkg/store/postgres"
	"github.com/iamdhrv/bigbluebutton/pkg/store/redis"
)

// OpenStore creates the persistent store backend selected by cfg.Store and
// the key scheme derived from its prefix.
func OpenStore(ctx context.Context, cfg *Config) (store.KV, store.Keys, error) {
	keys := store.NewKeys(cfg.Store.KeyPrefix)

	logger.Info("Opening mapping store", "backend", cfg.Store.Backend, "keyPrefix", keys.Prefix)

	switch cfg.Store.Backend {
	case "memory":
		return memory.NewMemoryStore(), keys, nil

	case "redis":
		kv, err := redis.NewRedisStore(ctx, cfg.Store.Redis)
		if err != nil {
			return nil, keys, fmt.Errorf("failed to open redis store: %w", err)
		}
		return kv, keys, nil

	case "badger":
		kv, err := badger.NewBadgerStore(cfg.Store.Badger.Path)
		if err != nil {
			return nil, keys, fmt.Errorf("failed to open badger store: %w", err)
		}
		return kv, keys, nil

	case "postgres":
		kv, err := postgres.NewPostgresStore(ctx, cfg.Store.Postgres)
		if err != nil {
			return nil, keys, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return kv, keys, nil

	default:
		return nil, keys, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
