// Package audit persists and queries the append-only audit trail. Events are
// written exclusively by the command bus; no code path updates or deletes
// them.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is one immutable audit record. Before/After carry handler-supplied
// state snapshots and are marshalled to JSON at write time; either may be nil.
type Event struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	ActorUserID int64
	ActorRoles  []string
	CommandType string
	EntityType  string
	EntityID    string
	Before      any
	After       any
	Reason      string
	Metadata    map[string]any
	DeviceID    string
}

// Filters narrows a timeline query. Zero values mean "no constraint".
type Filters struct {
	ActorUserID int64
	CommandType string
	EntityType  string
	// Search matches free text against actor name, command type and reason.
	Search string
	Limit  int
}

// Row is a queried audit record with raw JSON columns preserved as stored.
type Row struct {
	ID          uuid.UUID       `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	ActorUserID int64           `json:"actor_user_id"`
	ActorName   string          `json:"actor_name,omitempty"`
	ActorRoles  []string        `json:"actor_roles"`
	CommandType string          `json:"command_type"`
	EntityType  string          `json:"entity_type"`
	EntityID    string          `json:"entity_id,omitempty"`
	Before      json.RawMessage `json:"before,omitempty"`
	After       json.RawMessage `json:"after,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	DeviceID    string          `json:"device_id,omitempty"`
}
