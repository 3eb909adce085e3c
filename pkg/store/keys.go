package store

import "strconv"

// DefaultKeyPrefix is the prefix used when no prefix is configured.
// It matches the key space the webhook relay historically used, so an
// upgraded process keeps reading the records written by older versions.
const DefaultKeyPrefix = "bbb:webhooks"

// Keys derives the store keys for mapping records from a configurable
// prefix. All backends share one key space, so the layout here is a
// compatibility contract: a set of decimal-string mapping ids under
// MappingsKey, and one field record per id under MappingKey.
type Keys struct {
	Prefix string
}

// NewKeys returns a Keys using prefix, falling back to DefaultKeyPrefix
// when prefix is empty.
func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return Keys{Prefix: prefix}
}

// MappingsKey is the set holding the ids of all live mapping records.
func (k Keys) MappingsKey() string {
	return k.Prefix + ":mappings"
}

// MappingKey is the field record for a single mapping id.
func (k Keys) MappingKey(id int64) string {
	return k.Prefix + ":mapping:" + strconv.FormatInt(id, 10)
}
