package mapping

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/iamdhrv/bigbluebutton/internal/logger"
	"github.com/iamdhrv/bigbluebutton/pkg/metrics"
	"github.com/iamdhrv/bigbluebutton/pkg/store"
)

// Registry owns the authoritative in-memory mapping index, the monotonic
// identifier counter, and all lifecycle operations. Each instance has its
// own state; tests and multi-tenant embeddings can run independent
// registries side by side.
//
// The index and the persistent store are eventually consistent, not
// transactionally consistent: every mutation writes to the store first and
// applies the in-memory change whether or not the store acknowledged.
// Store failures are logged with operation and key context and surfaced to
// the caller without blocking the in-memory mutation; Resync heals drift.
type Registry struct {
	mu     sync.RWMutex
	index  map[string]*Mapping // keyed by InternalUserID
	nextID int64

	kv      store.KV
	keys    store.Keys
	metrics *metrics.MappingMetrics
}

// NewRegistry creates an empty registry writing through kv under the given
// key scheme. m may be nil to disable metrics.
func NewRegistry(kv store.KV, keys store.Keys, m *metrics.MappingMetrics) *Registry {
	return &Registry{
		index:   make(map[string]*Mapping),
		nextID:  1,
		kv:      kv,
		keys:    keys,
		metrics: m,
	}
}

// AddMapping allocates the next id, persists the mapping, and inserts it
// into the index keyed by internalUserID, overwriting any prior record with
// that key.
//
// The id is allocated unconditionally: a failed store write does not roll
// the counter back. The returned Mapping is always valid; the error, if
// non-nil, is the store failure that was logged (callers may ignore it, the
// in-memory insertion has already happened).
func (r *Registry) AddMapping(ctx context.Context, internalUserID, externalUserID, meetingID string) (*Mapping, error) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.mu.Unlock()

	m := &Mapping{
		ID:             id,
		InternalUserID: internalUserID,
		ExternalUserID: externalUserID,
		MeetingID:      meetingID,
	}

	err := r.save(ctx, m)

	r.mu.Lock()
	r.index[m.InternalUserID] = m
	live := len(r.index)
	r.mu.Unlock()

	r.metrics.RecordOperation("add")
	r.metrics.SetLiveMappings(live)

	logger.Info("Added user mapping",
		"id", m.ID,
		"internalUserID", m.InternalUserID,
		"externalUserID", m.ExternalUserID,
		"meetingID", m.MeetingID)

	return m, err
}

// RemoveMapping destroys every mapping whose InternalUserID equals
// internalUserID (by construction at most one, but the scan is generic) and
// returns the number of matches. Matches are destroyed concurrently; the
// call returns only after every destroy's store round-trip has finished.
func (r *Registry) RemoveMapping(ctx context.Context, internalUserID string) int {
	count := r.removeMatching(ctx, func(m *Mapping) bool {
		return m.InternalUserID == internalUserID
	})

	r.metrics.RecordOperation("remove")
	return count
}

// RemoveMappingsByMeeting destroys every mapping whose MeetingID equals
// meetingID and returns the number of matches. Mappings belonging to other
// meetings are untouched. Like RemoveMapping, the call joins all destroys
// before returning.
func (r *Registry) RemoveMappingsByMeeting(ctx context.Context, meetingID string) int {
	count := r.removeMatching(ctx, func(m *Mapping) bool {
		return m.MeetingID == meetingID
	})

	r.metrics.RecordOperation("remove_by_meeting")
	return count
}

// LookupExternalUserID translates an internal user id to its external
// counterpart. Pure in-memory read; returns false if no mapping exists.
func (r *Registry) LookupExternalUserID(internalUserID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.index[internalUserID]
	if !ok {
		return "", false
	}
	return m.ExternalUserID, true
}

// Get returns a copy of the mapping for an internal user id, if one
// exists. Pure in-memory read.
func (r *Registry) Get(internalUserID string) (Mapping, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.index[internalUserID]
	if !ok {
		return Mapping{}, false
	}
	return *m, true
}

// ListAll returns a snapshot copy of the current index. Order is
// unspecified.
func (r *Registry) ListAll() []Mapping {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mappings := make([]Mapping, 0, len(r.index))
	for _, m := range r.index {
		mappings = append(mappings, *m)
	}
	return mappings
}

// Resync rebuilds the in-memory index from the persistent store. It is run
// once at startup, before webhook delivery begins, and is safe to re-run at
// any time to heal drift between memory and store.
//
// Every id listed in the mappings set is fetched, reconstructed, and
// re-saved as an unordered batch of independent tasks; ids with no matching
// record (store drift) or a malformed record are logged and skipped. The
// call returns only after the entire batch has finished, with the counter
// advanced past every reconstructed id.
func (r *Registry) Resync(ctx context.Context) error {
	setKey := r.keys.MappingsKey()

	members, err := r.kv.ListSetMembers(ctx, setKey)
	if err != nil {
		logger.Error("Failed to list mapping ids for resync", "setKey", setKey, "error", err)
		r.metrics.RecordStoreFailure("resync")
		return err
	}

	var wg sync.WaitGroup
	for _, member := range members {
		wg.Add(1)
		go func(member string) {
			defer wg.Done()
			r.resyncOne(ctx, member)
		}(member)
	}
	wg.Wait()

	r.mu.RLock()
	live := len(r.index)
	r.mu.RUnlock()

	r.metrics.RecordOperation("resync")
	r.metrics.SetLiveMappings(live)

	logger.Info("Resynced user mappings from store", "listed", len(members), "live", live)
	return nil
}

// resyncOne fetches, reconstructs, and re-saves a single mapping id.
func (r *Registry) resyncOne(ctx context.Context, member string) {
	id, err := strconv.ParseInt(member, 10, 64)
	if err != nil {
		logger.Warn("Skipping malformed mapping id in set", "member", member, "error", err)
		return
	}

	key := r.keys.MappingKey(id)
	fields, err := r.kv.ReadAllFields(ctx, key)
	if err != nil {
		logger.Error("Failed to read mapping record during resync", "key", key, "error", err)
		r.metrics.RecordStoreFailure("resync")
		return
	}
	if len(fields) == 0 {
		// Set lists an id with no record: drift from a partially applied
		// delete or write. Skipped silently per contract.
		logger.Debug("Mapping id listed in set has no record, skipping", "key", key)
		return
	}

	m, err := MappingFromFields(fields)
	if err != nil {
		logger.Warn("Skipping malformed mapping record during resync", "key", key, "error", err)
		return
	}

	r.mu.Lock()
	if m.ID >= r.nextID {
		r.nextID = m.ID + 1
	}
	r.mu.Unlock()

	// Re-saving is a no-op content-wise but re-establishes the record's
	// presence in both the set and the store under the running counter.
	_ = r.save(ctx, m)

	r.mu.Lock()
	r.index[m.InternalUserID] = m
	r.mu.Unlock()
}

// save writes the mapping's field record and registers its id in the
// mappings set. Each command's failure is logged independently; the joined
// error is returned so callers can thread it through, but no caller treats
// it as fatal.
func (r *Registry) save(ctx context.Context, m *Mapping) error {
	key := r.keys.MappingKey(m.ID)

	writeErr := r.kv.WriteFields(ctx, key, m.Fields())
	if writeErr != nil {
		logger.Error("Failed to persist mapping record", "key", key, "error", writeErr)
		r.metrics.RecordStoreFailure("write_fields")
	}

	setErr := r.kv.AddToSet(ctx, r.keys.MappingsKey(), strconv.FormatInt(m.ID, 10))
	if setErr != nil {
		logger.Error("Failed to register mapping id in set", "id", m.ID, "error", setErr)
		r.metrics.RecordStoreFailure("add_to_set")
	}

	return errors.Join(writeErr, setErr)
}

// removeMatching scans the index once, destroys every match concurrently,
// and waits for all destroys to complete.
func (r *Registry) removeMatching(ctx context.Context, match func(*Mapping) bool) int {
	r.mu.RLock()
	var matches []*Mapping
	for _, m := range r.index {
		if match(m) {
			matches = append(matches, m)
		}
	}
	r.mu.RUnlock()

	var wg sync.WaitGroup
	for _, m := range matches {
		wg.Add(1)
		go func(m *Mapping) {
			defer wg.Done()
			r.destroy(ctx, m)
		}(m)
	}
	wg.Wait()

	r.mu.RLock()
	live := len(r.index)
	r.mu.RUnlock()
	r.metrics.SetLiveMappings(live)

	return len(matches)
}

// destroy removes one mapping from the set, deletes its record, and drops
// it from the index. Store failures are logged and do not prevent the
// in-memory removal.
func (r *Registry) destroy(ctx context.Context, m *Mapping) {
	if err := r.kv.RemoveFromSet(ctx, r.keys.MappingsKey(), strconv.FormatInt(m.ID, 10)); err != nil {
		logger.Error("Failed to remove mapping id from set", "id", m.ID, "error", err)
		r.metrics.RecordStoreFailure("remove_from_set")
	}

	key := r.keys.MappingKey(m.ID)
	if err := r.kv.DeleteKey(ctx, key); err != nil {
		logger.Error("Failed to delete mapping record", "key", key, "error", err)
		r.metrics.RecordStoreFailure("delete_key")
	}

	r.mu.Lock()
	// An add may have replaced this entry while the store round-trip was in
	// flight; only drop the index entry if it is still ours.
	if cur, ok := r.index[m.InternalUserID]; ok && cur.ID == m.ID {
		delete(r.index, m.InternalUserID)
	}
	r.mu.Unlock()

	logger.Info("Removed user mapping",
		"id", m.ID,
		"internalUserID", m.InternalUserID,
		"meetingID", m.MeetingID)
}
