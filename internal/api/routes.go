package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/voicehouse/outreach/internal/auth"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, healthHandler *HealthHandler, authManager *auth.Manager, limiter *RateLimiter, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			next.ServeHTTP(w, req)
		})
	})

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	// CORS - allow credentials for the session cookie
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health probes (no auth required)
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/live", healthHandler.HandleLiveness)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	// Auth routes (no auth required)
	if authManager != nil {
		r.Post("/auth/login", authManager.HandleLogin)
		r.Post("/auth/logout", authManager.HandleLogout)
	}

	r.Route("/api", func(r chi.Router) {
		if authManager != nil {
			r.Use(authManager.RequireAuth)
		}
		if limiter != nil {
			r.Use(limiter.Middleware)
		}

		r.Route("/audiences", func(r chi.Router) {
			r.Get("/", h.ListAudiences)
			r.Post("/", h.CreateAudience)
			r.Get("/{id}", h.GetAudience)
			r.Put("/{id}", h.UpdateAudience)
			r.Delete("/{id}", h.DeleteAudience)
			r.Post("/{id}/sync", h.SyncAudience)
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", h.ListContacts)
			r.Post("/", h.CreateContact)
			r.Get("/{id}", h.GetContact)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCampaign)
			r.Get("/{id}", h.GetCampaign)
			r.Put("/{id}", h.UpdateCampaign)
			r.Delete("/{id}", h.DeleteCampaign)
			r.Post("/{id}/send", h.SendCampaign)
		})

		r.Get("/reports/health", healthHandler.HandleReport)
	})

	return r
}
