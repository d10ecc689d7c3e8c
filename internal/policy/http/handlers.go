// Package policyhttp exposes the read side of the policy store. Policy
// mutations never pass through here; they are commands.
package policyhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/campus-os/campus-os/internal/platform/httpx"
	"github.com/campus-os/campus-os/internal/policy"
)

// ReadService defines the queries this handler needs.
type ReadService interface {
	Active(ctx context.Context, key string) (policy.Policy, error)
	ActiveSet(ctx context.Context) ([]policy.Policy, error)
	History(ctx context.Context, key string) ([]policy.Policy, error)
}

// Handler serves policy reads.
type Handler struct {
	logger  *slog.Logger
	service ReadService
}

// NewHandler builds the policy read handler.
func NewHandler(logger *slog.Logger, service ReadService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

type setResponse struct {
	Policies []policy.Policy `json:"policies"`
}

func (h *Handler) handleActiveSet(w http.ResponseWriter, r *http.Request) {
	policies, err := h.service.ActiveSet(r.Context())
	if err != nil {
		h.logger.Error("list active policies", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if policies == nil {
		policies = []policy.Policy{}
	}
	httpx.JSON(w, http.StatusOK, setResponse{Policies: policies})
}

func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	key, ok := policyKey(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	p, err := h.service.Active(r.Context(), key)
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("load policy", slog.String("key", key), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	key, ok := policyKey(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	versions, err := h.service.History(r.Context(), key)
	if err != nil {
		h.logger.Error("load policy history", slog.String("key", key), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if len(versions) == 0 {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, setResponse{Policies: versions})
}

func policyKey(r *http.Request) (string, bool) {
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if key == "" || len(key) > 128 {
		return "", false
	}
	return key, true
}
