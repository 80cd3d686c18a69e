package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rotzhost/rotzcoder/internal/analytics"
	"github.com/rotzhost/rotzcoder/internal/api/handlers"
	"github.com/rotzhost/rotzcoder/internal/api/middleware"
	"github.com/rotzhost/rotzcoder/internal/auth"
	"github.com/rotzhost/rotzcoder/internal/cache"
	"github.com/rotzhost/rotzcoder/internal/config"
	"github.com/rotzhost/rotzcoder/internal/keyvault"
	"github.com/rotzhost/rotzcoder/internal/llm"
	"github.com/rotzhost/rotzcoder/internal/mailer"
	"github.com/rotzhost/rotzcoder/internal/research"
	"github.com/rotzhost/rotzcoder/internal/routing"
	"github.com/rotzhost/rotzcoder/internal/secretbox"
	"github.com/rotzhost/rotzcoder/internal/user"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	box   *secretbox.Box
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, box *secretbox.Box) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		box:   box,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	rl := middleware.NewRateLimiter(float64(rt.cfg.Server.RateLimitRPS), rt.cfg.Server.RateLimitBurst)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/health", health.Healthz)
	r.Get("/health/ready", health.Readyz)

	// Shared infrastructure
	collector := analytics.NewCollector(rt.db)
	registry := llm.DefaultRegistry()
	post := mailer.New(rt.cfg.SMTP)

	// Auth stack
	store := user.NewStore(rt.db)
	hasher := auth.NewHasher(rt.cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(rt.cfg.Auth.JWTSecret, rt.cfg.Auth.TokenTTL)
	authSvc := auth.NewService(store, store, tokens, hasher).WithCollector(collector)
	if post.Enabled() {
		authSvc.WithNotifier(post)
	}
	if rt.redis != nil {
		throttle := auth.NewThrottle(cache.NewCache(rt.redis),
			rt.cfg.Auth.LoginMaxAttempts, rt.cfg.Auth.LoginWindow)
		authSvc.WithThrottle(throttle)
	}
	authMW := auth.NewMiddleware(tokens)

	// Domain services
	vault := keyvault.NewService(rt.db, rt.box, registry).WithCollector(collector)
	routes := routing.NewService(rt.db, registry)
	runner := research.NewService(rt.db, registry, routes, vault,
		rt.cfg.Providers.ServerKey, research.Defaults{
			Provider: rt.cfg.Providers.DefaultProvider,
			Model:    rt.cfg.Providers.DefaultModel,
		}).WithCollector(collector)

	admin := user.NewAdminService(store, hasher, rt.cfg.Auth.SuperAdminEmail).WithCollector(collector)
	if post.Enabled() {
		admin.WithNotifier(post)
	}

	dash := analytics.NewDashboard(rt.db)
	if rt.redis != nil {
		dash.WithCache(cache.NewCache(rt.redis), rt.cfg.Analytics.DashboardCacheTTL)
	}

	authH := handlers.NewAuthHandler(authSvc, store)
	keysH := handlers.NewKeysHandler(vault)
	llmH := handlers.NewLLMHandler(registry, runner)
	adminH := handlers.NewAdminHandler(admin, routes)
	analyticsH := handlers.NewAnalyticsHandler(dash)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)

		// Everything below requires a valid token
		r.Group(func(r chi.Router) {
			r.Use(authMW.Authenticate)

			r.Route("/auth", func(r chi.Router) {
				r.Get("/me", authH.Me)
				r.Post("/logout", authH.Logout)
				r.Post("/password", authH.ChangePassword)
				r.Post("/totp/setup", authH.TOTPSetup)
				r.Post("/totp/confirm", authH.TOTPConfirm)
				r.Post("/totp/disable", authH.TOTPDisable)
			})

			r.Route("/keys", func(r chi.Router) {
				r.Get("/", keysH.List)
				r.Get("/{provider}", keysH.Get)
				r.Put("/{provider}", keysH.Save)
				r.Delete("/{provider}", keysH.Delete)
			})

			r.Get("/providers", llmH.Providers)
			r.Post("/complete", llmH.Complete)
			r.Get("/tasks", llmH.Tasks)
			r.Get("/tasks/{id}", llmH.Task)

			// Admin surface
			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireAdmin)

				r.Get("/users", adminH.ListUsers)
				r.Get("/users/{id}", adminH.GetUser)
				r.With(auth.RequireSuperAdmin).Put("/users/{id}/role", adminH.SetUserRole)
				r.Put("/users/{id}/active", adminH.SetUserActive)

				r.Route("/routes", func(r chi.Router) {
					r.Get("/", adminH.ListRoutes)
					r.Post("/", adminH.CreateRoute)
					r.Put("/{id}", adminH.UpdateRoute)
					r.Delete("/{id}", adminH.DeleteRoute)
				})

				r.Route("/analytics", func(r chi.Router) {
					r.Get("/overview", analyticsH.Overview)
					r.Get("/events", analyticsH.EventsByType)
					r.Get("/daily", analyticsH.DailyActivity)
					r.Get("/top-users", analyticsH.TopUsers)
					r.Get("/recent", analyticsH.RecentEvents)
					r.Get("/usage", analyticsH.Usage)
				})
			})
		})
	})

	return r
}
