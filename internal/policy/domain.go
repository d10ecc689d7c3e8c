// Package policy stores named, versioned configuration values. Updates never
// overwrite: the current active row is deactivated and a new row inserted at
// the next version, so the full history stays queryable. All mutation flows
// through the command bus.
package policy

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound indicates that no active policy exists for the key.
var ErrNotFound = errors.New("policy: not found")

// Policy is one stored version of a configuration value. Exactly one row per
// key is active at a time.
type Policy struct {
	ID          int64           `json:"id"`
	Key         string          `json:"policy_key"`
	Value       json.RawMessage `json:"policy_value"`
	Description string          `json:"description,omitempty"`
	Version     int             `json:"version"`
	IsActive    bool            `json:"is_active"`
	CreatedBy   int64           `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}
