package command

import (
	"fmt"
	"sort"
	"sync"

	"github.com/campus-os/campus-os/internal/authz"
)

// ErrUnknownType is returned when a type is outside the closed vocabulary.
var ErrUnknownType = fmt.Errorf("unknown command type")

// requiredPermissions is the total permission table: one entry per command
// type. TestRegistryCoversEveryType enforces totality against AllTypes.
var requiredPermissions = map[Type]authz.Permission{
	TypeStudentCreate:    authz.PermStudentsWrite,
	TypeStudentUpdate:    authz.PermStudentsWrite,
	TypeAttendanceRecord: authz.PermAttendanceWrite,
	TypePolicyUpdate:     authz.PermPoliciesWrite,
	TypeUserRoleAssign:   authz.PermUsersAdmin,
	TypeUserRoleRemove:   authz.PermUsersAdmin,
}

// RequiredPermission resolves the single permission gating a command type.
// Unknown types fail closed: there is no permissive default.
func RequiredPermission(t Type) (authz.Permission, error) {
	perm, ok := requiredPermissions[t]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	return perm, nil
}

// Registry maps command types to their domain handlers. Handlers register at
// startup; dispatch for an unregistered type is a failure, never a fallthrough.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Type]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Type]Handler)}
}

// Register binds a handler to a type. Re-registering a type panics: two
// handlers for one command is a wiring bug, caught at startup.
func (r *Registry) Register(t Type, h Handler) {
	if h == nil {
		panic(fmt.Sprintf("command: nil handler for %s", t))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.handlers[t]; dup {
		panic(fmt.Sprintf("command: handler already registered for %s", t))
	}
	r.handlers[t] = h
}

// RegisterFunc binds a HandlerFunc to a type.
func (r *Registry) RegisterFunc(t Type, fn HandlerFunc) {
	r.Register(t, fn)
}

// Handler returns the handler for a type, if registered.
func (r *Registry) Handler(t Type) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[t]
	return h, ok
}

// Types returns the registered types in stable order, for startup logging.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]Type, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
