package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campus-os/campus-os/internal/app"
	"github.com/campus-os/campus-os/internal/audit"
	audithttp "github.com/campus-os/campus-os/internal/audit/http"
	"github.com/campus-os/campus-os/internal/auth"
	"github.com/campus-os/campus-os/internal/command"
	commandhttp "github.com/campus-os/campus-os/internal/command/http"
	"github.com/campus-os/campus-os/internal/observability"
	"github.com/campus-os/campus-os/internal/platform/cache"
	"github.com/campus-os/campus-os/internal/platform/db"
	"github.com/campus-os/campus-os/internal/policy"
	policyhttp "github.com/campus-os/campus-os/internal/policy/http"
	"github.com/campus-os/campus-os/internal/rbac"
	"github.com/campus-os/campus-os/internal/shared"
	"github.com/campus-os/campus-os/internal/students"
	"github.com/campus-os/campus-os/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "campus_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	rbacRepo := rbac.NewRepository(dbpool)
	rbacService := rbac.NewService(rbacRepo)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}
	meHandler := rbac.NewMeHandler(logger, rbacService)

	studentRepo := students.NewRepository(dbpool)
	policyRepo := policy.NewRepository(dbpool)

	registry := command.NewRegistry()
	registry.Register(command.TypeStudentCreate, students.NewCreateHandler(studentRepo))
	registry.Register(command.TypeStudentUpdate, students.NewUpdateHandler(studentRepo))
	registry.Register(command.TypeAttendanceRecord, students.NewAttendanceHandler(studentRepo))
	registry.Register(command.TypePolicyUpdate, policy.NewUpdateHandler(policyRepo))
	registry.Register(command.TypeUserRoleAssign, rbac.NewAssignHandler(rbacRepo))
	registry.Register(command.TypeUserRoleRemove, rbac.NewRemoveHandler(rbacRepo))

	recorder := audit.NewRecorder(dbpool)
	bus := command.NewBus(registry, recorder, logger, metrics)
	logger.Info("command bus ready", slog.Int("registered_types", len(registry.Types())))

	commandHandler := commandhttp.NewHandler(logger, bus, rbacService, idempotencyStore, cfg.DeviceID)

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audithttp.NewHandler(logger, auditService)

	policyService := policy.NewService(policyRepo)
	policyHandler := policyhttp.NewHandler(logger, policyService)

	usersRepo := users.NewRepository(dbpool)
	usersHandler := users.NewHandler(logger, users.NewService(usersRepo))

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		CommandHandler: commandHandler,
		AuditHandler:   auditHandler,
		PolicyHandler:  policyHandler,
		UsersHandler:   usersHandler,
		MeHandler:      meHandler,
		RBACMiddleware: rbacMiddleware,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
