package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/campus-os/campus-os/internal/audit/http"
	"github.com/campus-os/campus-os/internal/auth"
	commandhttp "github.com/campus-os/campus-os/internal/command/http"
	"github.com/campus-os/campus-os/internal/observability"
	"github.com/campus-os/campus-os/internal/platform/httpx"
	policyhttp "github.com/campus-os/campus-os/internal/policy/http"
	"github.com/campus-os/campus-os/internal/rbac"
	"github.com/campus-os/campus-os/internal/shared"
	"github.com/campus-os/campus-os/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	CommandHandler *commandhttp.Handler
	AuditHandler   *audithttp.Handler
	PolicyHandler  *policyhttp.Handler
	UsersHandler   *users.Handler
	MeHandler      *rbac.MeHandler
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Clients fetch a token here and echo it back in X-CSRF-Token on writes.
	r.Get("/api/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
		if err != nil {
			params.Logger.Error("ensure csrf token", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api", func(api chi.Router) {
		if params.CommandHandler != nil {
			params.CommandHandler.MountRoutes(api)
		}
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(api, params.RBACMiddleware)
		}
		if params.PolicyHandler != nil {
			params.PolicyHandler.MountRoutes(api, params.RBACMiddleware)
		}
		if params.UsersHandler != nil {
			params.UsersHandler.MountRoutes(api, params.RBACMiddleware)
		}
		if params.MeHandler != nil {
			api.Route("/me", params.MeHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
