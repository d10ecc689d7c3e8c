// Package commandhttp exposes the single mutation endpoint. Every write in
// the system arrives here as a command envelope and goes through the bus.
package commandhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/campus-os/campus-os/internal/authz"
	"github.com/campus-os/campus-os/internal/command"
	"github.com/campus-os/campus-os/internal/platform/httpx"
	"github.com/campus-os/campus-os/internal/shared"
)

// Executor runs one command. Satisfied by *command.Bus.
type Executor interface {
	Execute(ctx context.Context, caller command.Caller, req command.Request) command.Result
}

// ActorResolver loads the acting principal. Satisfied by *rbac.Service.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID int64) (authz.Actor, error)
}

// IdempotencyGuard deduplicates retried submissions by client-supplied key.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Handler accepts command submissions.
type Handler struct {
	logger      *slog.Logger
	bus         Executor
	actors      ActorResolver
	idempotency IdempotencyGuard
	deviceID    string
}

// NewHandler wires the command endpoint. The idempotency guard may be nil.
func NewHandler(logger *slog.Logger, bus Executor, actors ActorResolver, idempotency IdempotencyGuard, deviceID string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		bus:         bus,
		actors:      actors,
		idempotency: idempotency,
		deviceID:    deviceID,
	}
}

const idempotencyModule = "commands"

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil || h.actors == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	userID, ok := currentUserID(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req command.Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if req.Type == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "command type is required")
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), idemKey, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Duplicate", "request already processed")
				return
			}
			h.logger.Error("idempotency check", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}

	actor, err := h.actors.ResolveActor(r.Context(), userID)
	if err != nil {
		h.logger.Error("resolve actor", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	result := h.bus.Execute(r.Context(), command.Caller{Actor: actor, DeviceID: h.deviceID}, req)
	if !result.Success && idemKey != "" && h.idempotency != nil {
		// Free the key so the caller may retry a failed submission.
		if err := h.idempotency.Delete(r.Context(), idemKey); err != nil {
			h.logger.Warn("idempotency rollback", slog.String("key", idemKey), slog.Any("error", err))
		}
	}
	httpx.JSON(w, resultStatus(result), result)
}

// resultStatus maps the bus result onto an HTTP status. The Result body is
// returned verbatim either way; the status is a convenience for clients.
func resultStatus(res command.Result) int {
	switch {
	case res.Success:
		return http.StatusOK
	case strings.HasPrefix(res.Error, "permission denied"):
		return http.StatusForbidden
	case strings.HasPrefix(res.Error, "unknown command type"),
		strings.HasPrefix(res.Error, "no handler registered"):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
