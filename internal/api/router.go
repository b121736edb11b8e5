package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ottiehq/ottie-server/internal/api/handlers"
	mw "github.com/ottiehq/ottie-server/internal/api/middleware"
	"github.com/ottiehq/ottie-server/internal/config"
	"github.com/ottiehq/ottie-server/internal/domain"
	"github.com/ottiehq/ottie-server/internal/registrar"
	"github.com/ottiehq/ottie-server/internal/service"
	"github.com/ottiehq/ottie-server/internal/store"
)

// App holds the router and metrics counters.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) (*App, error) {
	// Stores
	workspaceStore := store.NewWorkspaceStore(db)
	siteStore := store.NewSiteStore(db)
	memberStore := store.NewMemberStore(db)
	claimStore := store.NewDomainClaimStore(db)

	// Registrar client via provider factory
	registrarClient, err := registrar.NewClient(
		config.RegistrarProvider(),
		config.RegistrarAPIURL(),
		config.RegistrarAPIToken(),
		config.RegistrarProjectID(),
	)
	if err != nil {
		return nil, err
	}
	logger.Info("registrar client initialized", zap.String("provider", config.RegistrarProvider()))

	// Services
	domainSvc := service.NewDomainService(
		workspaceStore, siteStore, claimStore, registrarClient,
		service.DomainServiceConfig{PlatformHost: config.PlatformHost()},
		logger,
	)
	workspaceSvc := service.NewWorkspaceService(workspaceStore, memberStore, domainSvc, logger)
	siteSvc := service.NewSiteService(siteStore, workspaceStore, config.PlatformHost(), logger)

	// Handlers
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceSvc)
	domainHandler := handlers.NewDomainHandler(domainSvc)
	siteHandler := handlers.NewSiteHandler(siteSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Workspace creation (no auth — bootstrap endpoint)
	r.Post("/v1/workspaces", workspaceHandler.Create)

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(memberStore))

		r.Route("/workspace", func(r chi.Router) {
			r.Get("/", workspaceHandler.Get)
			r.Patch("/", workspaceHandler.Update)
			r.Put("/plan", workspaceHandler.UpdatePlan)
			r.Get("/members", workspaceHandler.ListMembers)

			r.Route("/domain", func(r chi.Router) {
				r.Post("/", domainHandler.Attach)
				r.Post("/verify", domainHandler.Verify)
				r.Delete("/", domainHandler.Detach)
			})
		})

		r.Route("/sites", func(r chi.Router) {
			r.Get("/", siteHandler.List)
			r.Post("/", siteHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", siteHandler.GetByID)
				r.Patch("/", siteHandler.Update)
				r.Delete("/", siteHandler.Delete)
			})
		})
	})

	return app, nil
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.WorkspaceStore   = (*store.WorkspaceStore)(nil)
	_ domain.SiteStore        = (*store.SiteStore)(nil)
	_ domain.MemberStore      = (*store.MemberStore)(nil)
	_ domain.DomainClaimStore = (*store.DomainClaimStore)(nil)
	_ domain.RegistrarClient  = (*registrar.VercelClient)(nil)
	_ domain.RegistrarClient  = (*registrar.MockClient)(nil)
)
