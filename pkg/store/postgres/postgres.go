// Package postgres implements the store.KV contract on PostgreSQL.
//
// Field records live in mapping_records (key -> jsonb field map) and set
// membership in mapping_sets (set_key, member). Deployments that already
// run PostgreSQL for the rest of the platform can use it for the mapping
// store instead of standing up Redis.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iamdhrv/bigbluebutton/internal/logger"
)

// PostgresStore is a store.KV backed by a PostgreSQL database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL, optionally runs migrations, and
// verifies the connection.
func NewPostgresStore(ctx context.Context, cfg Config) (*PostgresStore, error) {
	cfg.ApplyDefaults()

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, cfg.ConnectionString()); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	logger.Info("Connecting to PostgreSQL mapping store",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database,
		"user", cfg.User)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreWithPool wraps an existing pool. Used by tests that
// provision their own database.
func NewPostgresStoreWithPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// WriteFields upserts the record at key as a jsonb field map.
func (s *PostgresStore) WriteFields(ctx context.Context, key string, fields map[string]string) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", key, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO mapping_records (key, fields)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET fields = EXCLUDED.fields`,
		key, data)
	if err != nil {
		return fmt.Errorf("failed to write record %s: %w", key, err)
	}

	return nil
}

// ReadAllFields returns the record at key, or an empty map if absent.
func (s *PostgresStore) ReadAllFields(ctx context.Context, key string) (map[string]string, error) {
	fields := make(map[string]string)

	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT fields FROM mapping_records WHERE key = $1`, key).Scan(&data)
	if err != nil {
		if isNoRows(err) {
			return fields, nil
		}
		return nil, fmt.Errorf("failed to read record %s: %w", key, err)
	}

	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", key, err)
	}

	return fields, nil
}

// AddToSet inserts the membership row, ignoring duplicates.
func (s *PostgresStore) AddToSet(ctx context.Context, setKey, member string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO mapping_sets (set_key, member)
		VALUES ($1, $2)
		ON CONFLICT (set_key, member) DO NOTHING`,
		setKey, member)
	if err != nil {
		return fmt.Errorf("failed to add %s to set %s: %w", member, setKey, err)
	}
	return nil
}

// RemoveFromSet deletes the membership row. Missing members are not an error.
func (s *PostgresStore) RemoveFromSet(ctx context.Context, setKey, member string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM mapping_sets WHERE set_key = $1 AND member = $2`,
		setKey, member)
	if err != nil {
		return fmt.Errorf("failed to remove %s from set %s: %w", member, setKey, err)
	}
	return nil
}

// DeleteKey removes the record at key. Missing keys are not an error.
func (s *PostgresStore) DeleteKey(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM mapping_records WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete record %s: %w", key, err)
	}
	return nil
}

// ListSetMembers returns the members of the set at setKey.
func (s *PostgresStore) ListSetMembers(ctx context.Context, setKey string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT member FROM mapping_sets WHERE set_key = $1`, setKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list set %s: %w", setKey, err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, fmt.Errorf("failed to scan set member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate set %s: %w", setKey, err)
	}

	return members, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
