package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/voicedesk/speechadmin/internal/api/handlers"
	"github.com/voicedesk/speechadmin/internal/api/middleware"
	"github.com/voicedesk/speechadmin/internal/audit"
	"github.com/voicedesk/speechadmin/internal/auth"
	"github.com/voicedesk/speechadmin/internal/config"
	"github.com/voicedesk/speechadmin/internal/conversion"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config

	conversions *conversion.Service
	users       *auth.Service
	keys        *auth.APIKeyStore
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, conversions *conversion.Service) *Router {
	return &Router{
		mux:         chi.NewRouter(),
		db:          db,
		redis:       rdb,
		cfg:         cfg,
		conversions: conversions,
		users:       auth.NewService(db, cfg.Auth.JWTSecret),
		keys:        auth.NewAPIKeyStore(db),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	auditSvc := audit.NewService(rt.db)
	authenticator := auth.NewAuthenticator(rt.keys, rt.users, rt.cfg.Auth.APIKeyHeader)

	authH := handlers.NewAuthHandler(rt.users)
	conversionH := handlers.NewConversionHandler(rt.conversions, auditSvc)
	adminH := handlers.NewAdminHandler(auditSvc, rt.keys)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Token endpoints stay open; everything else needs an API key
		// or a bearer token.
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.Post("/token", authH.Token)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator.Authenticate)

			r.Route("/conversions", func(r chi.Router) {
				r.Post("/", conversionH.Create)
				r.Get("/", conversionH.List)
				r.Get("/{id}", conversionH.Get)
				r.Put("/{id}", conversionH.Update)
				r.Delete("/{id}", conversionH.Delete)
				r.Get("/{id}/audio", conversionH.Download)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Post("/api-keys", adminH.CreateAPIKey)
				r.Get("/audit", adminH.AuditLogs)
			})
		})
	})

	return r
}
