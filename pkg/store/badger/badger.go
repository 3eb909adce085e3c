// Package badger implements the store.KV contract on an embedded BadgerDB.
//
// BadgerDB is a flat key-value store, so the hash-and-set contract is laid
// out over two key namespaces:
//
//	Data Type      Prefix  Key Format              Value Type
//	=========================================================
//	Field records  "h:"    h:<key>                 map[string]string (JSON)
//	Set members    "s:"    s:<setKey>:<member>     empty
//
// Set membership is a presence key; ListSetMembers is a prefix scan over
// "s:<setKey>:". This backend suits single-node deployments where a remote
// store is not available but mappings must survive restarts.
package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v4"
)

const (
	prefixRecord = "h:"
	prefixSet    = "s:"
)

// BadgerStore is a store.KV backed by a local BadgerDB database.
type BadgerStore struct {
	db *badgerdb.DB
}

// NewBadgerStore opens (or creates) the BadgerDB database at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badgerdb.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is too chatty for a side store

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", path, err)
	}

	return &BadgerStore{db: db}, nil
}

func keyRecord(key string) []byte {
	return []byte(prefixRecord + key)
}

func keySetMember(setKey, member string) []byte {
	return []byte(prefixSet + setKey + ":" + member)
}

func keySetPrefix(setKey string) []byte {
	return []byte(prefixSet + setKey + ":")
}

// WriteFields upserts the record at key as a JSON-encoded field map.
func (s *BadgerStore) WriteFields(ctx context.Context, key string, fields map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", key, err)
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keyRecord(key), data)
	})
}

// ReadAllFields returns the record at key, or an empty map if absent.
func (s *BadgerStore) ReadAllFields(ctx context.Context, key string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields := make(map[string]string)

	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyRecord(key))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &fields)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", key, err)
	}

	return fields, nil
}

// AddToSet records membership as a presence key under the set's namespace.
func (s *BadgerStore) AddToSet(ctx context.Context, setKey, member string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keySetMember(setKey, member), nil)
	})
}

// RemoveFromSet deletes the member's presence key. Missing members are not
// an error.
func (s *BadgerStore) RemoveFromSet(ctx context.Context, setKey, member string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(keySetMember(setKey, member))
	})
}

// DeleteKey removes the record at key. Missing keys are not an error.
func (s *BadgerStore) DeleteKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(keyRecord(key))
	})
}

// ListSetMembers prefix-scans the set's namespace and returns the member
// suffix of every presence key.
func (s *BadgerStore) ListSetMembers(ctx context.Context, setKey string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := keySetPrefix(setKey)
	var members []string

	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			member := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
			members = append(members, member)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list set %s: %w", setKey, err)
	}

	return members, nil
}

// Close closes the underlying BadgerDB database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
