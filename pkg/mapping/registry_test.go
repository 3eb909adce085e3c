package mapping

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamdhrv/bigbluebutton/pkg/store"
	"github.com/iamdhrv/bigbluebutton/pkg/store/memory"
)

func newTestRegistry(t *testing.T) (*Registry, *memory.MemoryStore, store.Keys) {
	t.Helper()
	kv := memory.NewMemoryStore()
	keys := store.NewKeys("test")
	return NewRegistry(kv, keys, nil), kv, keys
}

func TestRegistry_AddAndLookup(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	ctx := context.Background()

	m, err := r.AddMapping(ctx, "u1", "e1", "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.ID)
	assert.Equal(t, "u1", m.InternalUserID)
	assert.Equal(t, "e1", m.ExternalUserID)
	assert.Equal(t, "m1", m.MeetingID)

	ext, ok := r.LookupExternalUserID("u1")
	require.True(t, ok)
	assert.Equal(t, "e1", ext)

	_, ok = r.LookupExternalUserID("unknown")
	assert.False(t, ok)
}

func TestRegistry_AddPersistsRecordAndSetMembership(t *testing.T) {
	r, kv, keys := newTestRegistry(t)
	ctx := context.Background()

	m, err := r.AddMapping(ctx, "u1", "e1", "m1")
	require.NoError(t, err)

	members, err := kv.ListSetMembers(ctx, keys.MappingsKey())
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, members)

	fields, err := kv.ReadAllFields(ctx, keys.MappingKey(m.ID))
	require.NoError(t, err)
	assert.Equal(t, m.Fields(), fields)
}

func TestRegistry_LastWriteWinsPerInternalUserID(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.AddMapping(ctx, "u1", "e1", "m1")
	require.NoError(t, err)
	_, err = r.AddMapping(ctx, "u1", "e2", "m1")
	require.NoError(t, err)

	ext, ok := r.LookupExternalUserID("u1")
	require.True(t, ok)
	assert.Equal(t, "e2", ext)

	// The index holds at most one mapping per internal user id
	assert.Len(t, r.ListAll(), 1)
}

func TestRegistry_RemoveMapping(t *testing.T) {
	r, kv, keys := newTestRegistry(t)
	ctx := context.Background()

	m, err := r.AddMapping(ctx, "u1", "e1", "m1")
	require.NoError(t, err)

	count := r.RemoveMapping(ctx, "u1")
	assert.Equal(t, 1, count)

	_, ok := r.LookupExternalUserID("u1")
	assert.False(t, ok)

	// Removal completed its store round-trips before returning
	members, err := kv.ListSetMembers(ctx, keys.MappingsKey())
	require.NoError(t, err)
	assert.Empty(t, members)

	fields, err := kv.ReadAllFields(ctx, keys.MappingKey(m.ID))
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestRegistry_RemoveMapping_NoMatch(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	count := r.RemoveMapping(context.Background(), "nobody")
	assert.Equal(t, 0, count)
}

func TestRegistry_RemoveMappingsByMeeting(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.AddMapping(ctx, "u1", "e1", "m1")
	require.NoError(t, err)
	_, err = r.AddMapping(ctx, "u2", "e2", "m1")
	require.NoError(t, err)
	_, err = r.AddMapping(ctx, "u3", "e3", "m2")
	require.NoError(t, err)

	count := r.RemoveMappingsByMeeting(ctx, "m1")
	assert.Equal(t, 2, count)

	all := r.ListAll()
	require.Len(t, all, 1)
	assert.Equal(t, "u3", all[0].InternalUserID)
	assert.Equal(t, "m2", all[0].MeetingID)
}

// Mirrors the meeting lifecycle end to end: two joins, then the meeting ends.
func TestRegistry_MeetingLifecycleScenario(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	ctx := context.Background()

	m1, err := r.AddMapping(ctx, "u1", "e1", "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), m1.ID)

	ext, ok := r.LookupExternalUserID("u1")
	require.True(t, ok)
	assert.Equal(t, "e1", ext)

	m2, err := r.AddMapping(ctx, "u2", "e2", "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), m2.ID)

	r.RemoveMappingsByMeeting(ctx, "m1")
	assert.Empty(t, r.ListAll())
}

func TestRegistry_ConcurrentAddsGetDistinctIncreasingIDs(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	ctx := context.Background()

	const n = 100
	ids := make([]int64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, _ := r.AddMapping(ctx, "user", "ext", "meeting")
			ids[i] = m.ID
		}(i)
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i := 1; i < n; i++ {
		assert.NotEqual(t, ids[i-1], ids[i], "ids must be distinct")
	}
	assert.Equal(t, int64(1), ids[0])
	assert.Equal(t, int64(n), ids[n-1])
}

func TestRegistry_ResyncRebuildsIndexAndAdvancesCounter(t *testing.T) {
	kv := memory.NewMemoryStore()
	keys := store.NewKeys("test")
	ctx := context.Background()

	// Pre-populate the store as a previous process would have left it
	seed := NewRegistry(kv, keys, nil)
	_, err := seed.AddMapping(ctx, "u1", "e1", "m1")
	require.NoError(t, err)
	_, err = seed.AddMapping(ctx, "u2", "e2", "m2")
	require.NoError(t, err)
	_, err = seed.AddMapping(ctx, "u3", "e3", "m2")
	require.NoError(t, err)

	// Fresh process: empty index, counter back at 1
	r := NewRegistry(kv, keys, nil)
	require.NoError(t, r.Resync(ctx))

	all := r.ListAll()
	assert.Len(t, all, 3)

	ext, ok := r.LookupExternalUserID("u2")
	require.True(t, ok)
	assert.Equal(t, "e2", ext)

	// Freshly allocated ids must not collide with recovered ones
	m, err := r.AddMapping(ctx, "u4", "e4", "m2")
	require.NoError(t, err)
	assert.Equal(t, int64(4), m.ID)
}

func TestRegistry_ResyncSkipsDriftedSetMembers(t *testing.T) {
	kv := memory.NewMemoryStore()
	keys := store.NewKeys("test")
	ctx := context.Background()

	seed := NewRegistry(kv, keys, nil)
	_, err := seed.AddMapping(ctx, "u1", "e1", "m1")
	require.NoError(t, err)

	// Drift: the set lists an id whose record never made it to the store
	require.NoError(t, kv.AddToSet(ctx, keys.MappingsKey(), "99"))

	r := NewRegistry(kv, keys, nil)
	require.NoError(t, r.Resync(ctx))

	all := r.ListAll()
	require.Len(t, all, 1)
	assert.Equal(t, "u1", all[0].InternalUserID)
}

func TestRegistry_ResyncSkipsMalformedRecords(t *testing.T) {
	kv := memory.NewMemoryStore()
	keys := store.NewKeys("test")
	ctx := context.Background()

	seed := NewRegistry(kv, keys, nil)
	_, err := seed.AddMapping(ctx, "u1", "e1", "m1")
	require.NoError(t, err)

	// A record whose id field does not parse
	require.NoError(t, kv.AddToSet(ctx, keys.MappingsKey(), "7"))
	require.NoError(t, kv.WriteFields(ctx, keys.MappingKey(7), map[string]string{
		"id":             "garbage",
		"internalUserID": "u7",
	}))

	r := NewRegistry(kv, keys, nil)
	require.NoError(t, r.Resync(ctx))

	require.Len(t, r.ListAll(), 1)
	_, ok := r.LookupExternalUserID("u7")
	assert.False(t, ok)
}

// faultStore wraps a store.KV and fails every write-side command, mimicking
// an unreachable remote store.
type faultStore struct {
	store.KV
}

var errStoreDown = errors.New("store unreachable")

func (f *faultStore) WriteFields(ctx context.Context, key string, fields map[string]string) error {
	return errStoreDown
}

func (f *faultStore) AddToSet(ctx context.Context, setKey, member string) error {
	return errStoreDown
}

func (f *faultStore) RemoveFromSet(ctx context.Context, setKey, member string) error {
	return errStoreDown
}

func (f *faultStore) DeleteKey(ctx context.Context, key string) error {
	return errStoreDown
}

func TestRegistry_StoreFailuresDoNotBlockMemory(t *testing.T) {
	kv := &faultStore{KV: memory.NewMemoryStore()}
	r := NewRegistry(kv, store.NewKeys("test"), nil)
	ctx := context.Background()

	// The store error is threaded through, but the mapping is indexed anyway
	m, err := r.AddMapping(ctx, "u1", "e1", "m1")
	require.ErrorIs(t, err, errStoreDown)
	require.NotNil(t, m)

	ext, ok := r.LookupExternalUserID("u1")
	require.True(t, ok)
	assert.Equal(t, "e1", ext)

	// Removal also proceeds in memory despite the failing deletes
	count := r.RemoveMapping(ctx, "u1")
	assert.Equal(t, 1, count)
	_, ok = r.LookupExternalUserID("u1")
	assert.False(t, ok)
}
