package policy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/campus-os/campus-os/internal/command"
)

// UpdatePayload is the payload for policy.update commands.
type UpdatePayload struct {
	Key         string          `json:"policy_key" validate:"required,max=128"`
	Value       json.RawMessage `json:"policy_value" validate:"required"`
	Description string          `json:"description" validate:"max=512"`
}

// UpdateHandler executes policy.update: it advances the versioned store and
// reports the prior active row and the inserted row as before/after state.
type UpdateHandler struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewUpdateHandler builds the handler.
func NewUpdateHandler(repo RepositoryPort) *UpdateHandler {
	return &UpdateHandler{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Handle implements command.Handler.
func (h *UpdateHandler) Handle(ctx context.Context, cmd command.Command) (command.Outcome, error) {
	var payload UpdatePayload
	if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
		return command.Outcome{}, fmt.Errorf("policy.update: invalid payload: %w", err)
	}
	if err := h.validate.Struct(payload); err != nil {
		return command.Outcome{}, fmt.Errorf("policy.update: %w", err)
	}
	if !json.Valid(payload.Value) {
		return command.Outcome{}, fmt.Errorf("policy.update: policy_value is not valid JSON")
	}

	prev, next, err := h.repo.Advance(ctx, payload.Key, payload.Value, payload.Description, cmd.ActorID)
	if err != nil {
		return command.Outcome{}, err
	}

	outcome := command.Outcome{
		Data:   next,
		After:  next,
		Entity: &command.EntityRef{Type: "policy", ID: next.Key},
	}
	if prev != nil {
		outcome.Before = *prev
	}
	return outcome, nil
}
