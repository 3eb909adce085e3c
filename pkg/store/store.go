// Package store defines the persistent key-value contract the mapping
// registry writes through, plus the key naming scheme shared by all backends.
//
// The contract is deliberately small: hash-like field records addressed by
// key, and flat string sets addressed by set key. Individual commands are
// at-least-once and there is no multi-command atomicity; callers sequence
// commands themselves and treat each failure independently.
package store

import "context"

// KV is the persistent store adapter consumed by the mapping registry.
//
// Every call can fail or time out (the backing store is assumed to be a
// remote service). No call is transactional with another.
type KV interface {
	// WriteFields upserts a hash-like record under key. Idempotent.
	WriteFields(ctx context.Context, key string, fields map[string]string) error

	// ReadAllFields returns the record's fields, or an empty map if the
	// key does not exist.
	ReadAllFields(ctx context.Context, key string) (map[string]string, error)

	// AddToSet adds member to the set stored at setKey.
	AddToSet(ctx context.Context, setKey, member string) error

	// RemoveFromSet removes member from the set stored at setKey.
	RemoveFromSet(ctx context.Context, setKey, member string) error

	// DeleteKey removes the record stored at key.
	DeleteKey(ctx context.Context, key string) error

	// ListSetMembers returns the members of the set at setKey, unordered.
	ListSetMembers(ctx context.Context, setKey string) ([]string, error)

	// Close releases any connections held by the backend.
	Close() error
}
