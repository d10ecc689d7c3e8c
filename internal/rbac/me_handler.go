package rbac

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/campus-os/campus-os/internal/authz"
	"github.com/campus-os/campus-os/internal/platform/httpx"
	"github.com/campus-os/campus-os/internal/shared"
)

// MeHandler reports the current actor's roles and effective permissions so a
// UI can hide affordances the user cannot complete. Purely advisory; the bus
// re-checks every mutation.
type MeHandler struct {
	logger  *slog.Logger
	service *Service
}

// NewMeHandler builds a MeHandler instance.
func NewMeHandler(logger *slog.Logger, service *Service) *MeHandler {
	return &MeHandler{logger: logger, service: service}
}

// MountRoutes registers the identity routes.
func (h *MeHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.me)
}

type meResponse struct {
	UserID      int64              `json:"user_id"`
	Roles       []authz.Role       `json:"roles"`
	Permissions []authz.Permission `json:"permissions"`
	IsAdmin     bool               `json:"is_admin"`
}

func (h *MeHandler) me(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || strings.TrimSpace(sess.User()) == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	userID, err := strconv.ParseInt(strings.TrimSpace(sess.User()), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	actor, err := h.service.ResolveActor(r.Context(), userID)
	if err != nil {
		h.logger.Error("resolve actor", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, meResponse{
		UserID:      actor.UserID,
		Roles:       actor.Roles,
		Permissions: actor.Permissions(),
		IsAdmin:     actor.IsAdmin(),
	})
}
