package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/campus-os/campus-os/internal/authz"
	"github.com/campus-os/campus-os/internal/command"
)

// RolePayload is the payload for user.role.assign and user.role.remove.
type RolePayload struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Role   string `json:"role" validate:"required"`
}

func decodeRolePayload(cmd command.Command, validate *validator.Validate) (int64, authz.Role, error) {
	var payload RolePayload
	if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
		return 0, "", fmt.Errorf("%s: invalid payload: %w", cmd.Type, err)
	}
	if err := validate.Struct(payload); err != nil {
		return 0, "", fmt.Errorf("%s: %w", cmd.Type, err)
	}
	role := authz.Role(payload.Role)
	if !knownRole(role) {
		return 0, "", fmt.Errorf("%w: %s", ErrUnknownRole, payload.Role)
	}
	return payload.UserID, role, nil
}

// AssignHandler executes user.role.assign.
type AssignHandler struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewAssignHandler builds the handler.
func NewAssignHandler(repo RepositoryPort) *AssignHandler {
	return &AssignHandler{repo: repo, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Handle implements command.Handler. A duplicate grant surfaces the specific
// ErrRoleAlreadyAssigned message, never a raw constraint error.
func (h *AssignHandler) Handle(ctx context.Context, cmd command.Command) (command.Outcome, error) {
	userID, role, err := decodeRolePayload(cmd, h.validate)
	if err != nil {
		return command.Outcome{}, err
	}

	grant, err := h.repo.InsertGrant(ctx, Grant{UserID: userID, Role: role, AssignedBy: cmd.ActorID})
	if err != nil {
		return command.Outcome{}, err
	}

	return command.Outcome{
		Data:   grant,
		After:  Grant{UserID: userID, Role: role},
		Entity: &command.EntityRef{Type: "user", ID: strconv.FormatInt(userID, 10)},
	}, nil
}

// RemoveHandler executes user.role.remove. Removing a grant the user does not
// hold is idempotent success; the audit before-state falls back to the input
// pair.
type RemoveHandler struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewRemoveHandler builds the handler.
func NewRemoveHandler(repo RepositoryPort) *RemoveHandler {
	return &RemoveHandler{repo: repo, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Handle implements command.Handler.
func (h *RemoveHandler) Handle(ctx context.Context, cmd command.Command) (command.Outcome, error) {
	userID, role, err := decodeRolePayload(cmd, h.validate)
	if err != nil {
		return command.Outcome{}, err
	}

	before := Grant{UserID: userID, Role: role}
	if existing, found, err := h.repo.GetGrant(ctx, userID, role); err != nil {
		return command.Outcome{}, err
	} else if found {
		before = existing
	}

	if err := h.repo.DeleteGrant(ctx, userID, role); err != nil {
		return command.Outcome{}, err
	}

	return command.Outcome{
		Data:   Grant{UserID: userID, Role: role},
		Before: before,
		Entity: &command.EntityRef{Type: "user", ID: strconv.FormatInt(userID, 10)},
	}, nil
}
