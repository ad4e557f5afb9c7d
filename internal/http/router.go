package http

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/signalix/phoneauth/internal/http/handlers"
	"github.com/signalix/phoneauth/internal/middleware"
	"go.uber.org/zap"
)

// RouterDeps bundles what NewRouter needs. Media is optional.
type RouterDeps struct {
	Auth   *handlers.AuthHandler
	Media  *handlers.MediaHandler
	Users  middleware.UserResolver
	Logger *zap.Logger
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	requireUser := middleware.AuthMiddleware(deps.Users)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/request_code", deps.Auth.HandleRequestCode)
		r.Post("/verify_code", deps.Auth.HandleVerifyCode)
		r.Post("/refresh", deps.Auth.HandleRefresh)
		r.Post("/logout", deps.Auth.HandleLogout)

		r.With(requireUser).Get("/me", deps.Auth.HandleMe)
	})

	if deps.Media != nil {
		r.Route("/media", func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/", deps.Media.HandleUpload)
			r.Get("/", deps.Media.HandleList)
			r.Get("/{key}", deps.Media.HandleGet)
			r.Put("/{key}", deps.Media.HandleReplace)
			r.Delete("/{key}", deps.Media.HandleDelete)
		})
	}

	return r
}
