// Package mapping implements the user-mapping registry of the webhook relay:
// an in-memory index of internal-to-external user identifiers, scoped to a
// meeting, mirrored to a persistent key-value store.
package mapping

import (
	"fmt"
	"strconv"
)

// Persisted field names. These are a compatibility contract with the key
// space shared by other relay instances: changing them orphans existing
// records.
const (
	fieldID             = "id"
	fieldInternalUserID = "internalUserID"
	fieldExternalUserID = "externalUserID"
	fieldMeetingID      = "meetingId"
)

// Mapping links an internal user identifier (meeting server namespace) to
// an external one (third-party API namespace) within a single meeting.
type Mapping struct {
	// ID is the store record key component. It is allocated by the
	// registry, strictly increasing for the process lifetime, and never
	// exposed as a business identifier.
	ID int64 `json:"id"`

	// InternalUserID identifies the participant in the meeting server's
	// namespace. It is the registry's primary lookup key.
	InternalUserID string `json:"internalUserID"`

	// ExternalUserID identifies the same participant in the externally
	// facing namespace.
	ExternalUserID string `json:"externalUserID"`

	// MeetingID groups mappings belonging to one meeting session.
	MeetingID string `json:"meetingId"`
}

// Fields returns the mapping as the string field map persisted to the store.
func (m *Mapping) Fields() map[string]string {
	return map[string]string{
		fieldID:             strconv.FormatInt(m.ID, 10),
		fieldInternalUserID: m.InternalUserID,
		fieldExternalUserID: m.ExternalUserID,
		fieldMeetingID:      m.MeetingID,
	}
}

// MappingFromFields reconstructs a Mapping from a persisted field map.
// Records with a missing or unparsable id field are rejected; resync logs
// and skips them rather than propagating the failure.
func MappingFromFields(fields map[string]string) (*Mapping, error) {
	rawID, ok := fields[fieldID]
	if !ok {
		return nil, fmt.Errorf("mapping record has no %s field", fieldID)
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("mapping record has malformed id %q: %w", rawID, err)
	}

	return &Mapping{
		ID:             id,
		InternalUserID: fields[fieldInternalUserID],
		ExternalUserID: fields[fieldExternalUserID],
		MeetingID:      fields[fieldMeetingID],
	}, nil
}
