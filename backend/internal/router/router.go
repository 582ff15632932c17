package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ecomm-dev/accounts/backend/internal/handler"
	backend_mw "github.com/ecomm-dev/accounts/backend/internal/middleware"
	"github.com/ecomm-dev/accounts/backend/internal/setup"
	mw "github.com/ecomm-dev/accounts/shared/middleware"
	"github.com/ecomm-dev/accounts/shared/middleware/metrics"
)

// New builds the chi router with every route of the service.
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	origins := deps.Config.Public.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"POST", "GET", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization", handler.ElevationHeader},
	}))

	// JSON only API, nothing may be loaded or framed
	r.Use(mw.SecurityHeadersWithCSP(deps.Config.Public.SecureHeaders, mw.APIContentSecurityPolicy))

	h := deps.Handler
	auth := deps.Auth

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/user", func(r chi.Router) {
		r.With(
			auth.Elevation(handler.ElevationHeader),
			deps.Unique.Field("email"),
		).Post("/create", h.CreateUser)

		r.Group(func(r chi.Router) {
			if deps.LoginLimiter != nil {
				byIP := backend_mw.ByIP
				if deps.Config.Public.LoginRateLimit.TrustProxyHeaders {
					byIP = backend_mw.ByForwardedIP
				}
				r.Use(backend_mw.RateLimit(deps.LoginLimiter, byIP, backend_mw.ByBodyField("email")))
			}
			r.Post("/login", h.Login)
		})

		r.With(auth.NeedAuth()).Get("/@self", h.Self)

		r.With(
			auth.NeedAdmin(),
			backend_mw.ValidateID("id", deps.Storage.ValidID),
		).Get("/{id}", h.GetUser)
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.NotFound)

	return r
}
