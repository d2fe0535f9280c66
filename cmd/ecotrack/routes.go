package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ecotrack/backend/internal/apierrors"
	"github.com/ecotrack/backend/internal/auth"
	"github.com/ecotrack/backend/internal/config"
	"github.com/ecotrack/backend/internal/correlation"
	"github.com/ecotrack/backend/internal/handler"
	"github.com/ecotrack/backend/internal/impact"
	"github.com/ecotrack/backend/internal/repository"
)

type routerDeps struct {
	cfg     config.ServerConfig
	chat    config.ChatConfig
	logger  *slog.Logger
	db      handler.Pinger
	jwt     *auth.JWTManager
	users   repository.UserRepository
	logs    repository.ImpactLogRepository
	impacts *impact.Service
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(correlation.Middleware)
	r.Use(requestLogger(d.logger))
	r.Use(apierrors.Recoverer(d.logger))
	if d.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.cfg.RequestTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", correlation.HeaderName},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After", correlation.HeaderName},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", handler.Root(version))
	r.Get("/health", handler.Health(d.db))

	authHandler := auth.NewHandler(d.jwt, d.users, d.logger)
	impactHandler := handler.NewImpactHandler(d.impacts, d.logger)
	adminHandler := handler.NewAdminHandler(d.users, d.logs, d.logger)
	chatLimiter := handler.NewUserRateLimiter(d.chat.RatePerMinute, d.chat.Burst)

	requireAuth := auth.Middleware(d.jwt, d.users, d.logger)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.With(requireAuth).Get("/me", authHandler.Me)
	})

	r.Route("/impact", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/calculate", impactHandler.Calculate)
		r.Get("/history", impactHandler.History)
		r.Get("/history/export", impactHandler.Export)
		r.With(chatLimiter.Middleware).Post("/chat", impactHandler.Chat)
		r.Get("/comparison", impactHandler.Comparison)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAuth, auth.RequireAdmin)
		r.Get("/users", adminHandler.ListUsers)
		r.Delete("/users/{id}", adminHandler.DeleteUser)
		r.Get("/logs", adminHandler.ListLogs)
		r.Get("/stats", adminHandler.Stats)
	})

	return r
}

// requestLogger logs one line per request with the correlation id.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			correlation.Logger(r.Context(), logger).Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
