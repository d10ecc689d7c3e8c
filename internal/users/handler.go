package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campus-os/campus-os/internal/authz"
	"github.com/campus-os/campus-os/internal/platform/httpx"
	"github.com/campus-os/campus-os/internal/rbac"
)

// Handler serves the user directory.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user directory routes behind the users.admin guard.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(gr chi.Router) {
		gr.Use(guard.RequireAny(authz.PermUsersAdmin))
		gr.Get("/users", h.listUsers)
	})
}

type listResponse struct {
	Users []User `json:"users"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []User{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Users: list})
}
