// Package command implements the single mandatory pathway for mutations: a
// bus that checks the acting principal's permission, dispatches to a domain
// handler, and records an audit event for every successful execution.
package command

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campus-os/campus-os/internal/authz"
)

// Type enumerates every mutating command the system accepts. The set is
// closed: adding a value here without a registry entry and a handler is
// caught by TestRegistryCoversEveryType.
type Type string

const (
	TypeStudentCreate    Type = "student.create"
	TypeStudentUpdate    Type = "student.update"
	TypeAttendanceRecord Type = "attendance.record"
	TypePolicyUpdate     Type = "policy.update"
	TypeUserRoleAssign   Type = "user.role.assign"
	TypeUserRoleRemove   Type = "user.role.remove"
)

// AllTypes lists the closed command vocabulary.
func AllTypes() []Type {
	return []Type{
		TypeStudentCreate,
		TypeStudentUpdate,
		TypeAttendanceRecord,
		TypePolicyUpdate,
		TypeUserRoleAssign,
		TypeUserRoleRemove,
	}
}

// EntityType derives the audited entity class from the type's first segment,
// used when a request carries no explicit entity reference.
func (t Type) EntityType() string {
	s := string(t)
	if i := strings.IndexByte(s, '.'); i > 0 {
		return s[:i]
	}
	return s
}

// EntityRef links a command to the record it affects, for audit purposes.
type EntityRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Request is what a caller submits: the intended mutation plus optional audit
// context. Identity fields are never caller-supplied; the bus assigns them.
type Request struct {
	Type     Type            `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Entity   *EntityRef      `json:"entity_ref,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

// Caller carries the per-request execution context: the resolved actor and
// the stable per-install device identifier. Both are computed once by the
// edge layer; the bus never reaches into ambient state.
type Caller struct {
	Actor    authz.Actor
	DeviceID string
}

// Command is the materialised, immutable form handed to handlers. ActorRoles
// is a snapshot taken at execution time so audit records stay historically
// accurate if the actor's roles change later.
type Command struct {
	ID         uuid.UUID
	Type       Type
	Payload    json.RawMessage
	Entity     *EntityRef
	Reason     string
	Metadata   map[string]any
	ActorID    int64
	ActorRoles []string
	CreatedAt  time.Time
	DeviceID   string
}

// Outcome is what a handler returns on success. Before/After are optional
// state snapshots for the audit record; Entity lets the handler refine the
// audit linkage (e.g. with the id it just created).
type Outcome struct {
	Data   any
	Before any
	After  any
	Entity *EntityRef
}

// Handler executes the domain logic for one command type.
type Handler interface {
	Handle(ctx context.Context, cmd Command) (Outcome, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, cmd Command) (Outcome, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, cmd Command) (Outcome, error) {
	return f(ctx, cmd)
}

// Result is the structured outcome of one execution. Every path through the
// bus, including authorization failure, returns a Result; errors never cross
// the boundary as panics. AuditEventID is set only when the execution
// succeeded and the audit write itself succeeded.
type Result struct {
	Success      bool   `json:"success"`
	Data         any    `json:"data,omitempty"`
	Error        string `json:"error,omitempty"`
	AuditEventID string `json:"audit_event_id,omitempty"`
}
