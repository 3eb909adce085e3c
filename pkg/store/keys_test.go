package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys_Layout(t *testing.T) {
	keys := NewKeys("bbb:webhooks")

	assert.Equal(t, "bbb:webhooks:mappings", keys.MappingsKey())
	assert.Equal(t, "bbb:webhooks:mapping:42", keys.MappingKey(42))
}

func TestNewKeys_EmptyPrefixFallsBackToDefault(t *testing.T) {
	keys := NewKeys("")

	assert.Equal(t, DefaultKeyPrefix+":mappings", keys.MappingsKey())
}
