// Package audithttp exposes the audit trail query API.
package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/campus-os/campus-os/internal/audit"
	"github.com/campus-os/campus-os/internal/platform/httpx"
)

// QueryService defines the business contract for audit queries.
type QueryService interface {
	List(ctx context.Context, f audit.Filters) ([]audit.Row, error)
}

// Handler serves audit trail queries.
type Handler struct {
	logger  *slog.Logger
	service QueryService
}

// NewHandler builds the audit handler.
func NewHandler(logger *slog.Logger, service QueryService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

type listResponse struct {
	Events []audit.Row `json:"events"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list audit events", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if rows == nil {
		rows = []audit.Row{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Events: rows})
}

func parseFilters(r *http.Request) (audit.Filters, error) {
	q := r.URL.Query()
	var f audit.Filters
	if v := strings.TrimSpace(q.Get("actor")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return audit.Filters{}, httpx.ErrValidation
		}
		f.ActorUserID = id
	}
	f.CommandType = strings.TrimSpace(q.Get("command_type"))
	f.EntityType = strings.TrimSpace(q.Get("entity_type"))
	f.Search = strings.TrimSpace(q.Get("q"))
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return audit.Filters{}, httpx.ErrValidation
		}
		f.Limit = n
	}
	return f, nil
}
