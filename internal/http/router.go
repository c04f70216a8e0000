package http

import (
	"net/http"
	"os"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"freightdeck/internal/auth"
	"freightdeck/internal/config"
	"freightdeck/internal/exporter"
	"freightdeck/internal/platform/metrics"
	"freightdeck/internal/profile"
	"freightdeck/internal/realtime"
	"freightdeck/internal/shipments"
)

// Services bundles the application services the router exposes.
type Services struct {
	Auth      *auth.Service
	Google    *auth.GoogleAuthenticator
	Profiles  *profile.Service
	Shipments *shipments.Service
	Hub       *realtime.Hub
}

// NewRouter wires application routes and middleware using chi.
func NewRouter(cfg config.Config, svcs Services, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))
	r.Use(newSlogMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})
	r.Handle("/metrics", metrics.Handler())

	sessionHandler := NewSessionHandler(svcs.Auth, svcs.Profiles, cfg.Environment, logger)
	profileHandler := NewProfileHandler(svcs.Profiles, svcs.Hub, logger)
	shipmentHandler := NewShipmentHandler(svcs.Shipments, exporter.NewCSVExporter(), logger)
	dashboardHandler := NewDashboardHandler(svcs.Shipments, logger)

	requireAuth := newAuthMiddleware(svcs.Auth, logger)

	r.Route("/api", func(r chi.Router) {
		if svcs.Google != nil {
			oauthHandler := NewOAuthHandler(svcs.Google, svcs.Auth, cfg.FrontendURL, cfg.Environment, logger)
			r.Route("/auth", func(r chi.Router) {
				r.Get("/google", oauthHandler.InitiateGoogle)
				r.Get("/google/callback", oauthHandler.CallbackGoogle)
			})
		} else {
			logger.Warn("google oauth is not configured; sign-in endpoints are disabled")
		}

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/session", func(r chi.Router) {
				r.Get("/", sessionHandler.Current)
				r.Delete("/", sessionHandler.Logout)
			})

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", profileHandler.Get)
				r.Put("/", profileHandler.Update)
				r.Post("/avatar", profileHandler.UploadAvatar)
				r.Delete("/avatar", profileHandler.RemoveAvatar)
				r.Get("/events", profileHandler.Events)
			})

			r.Route("/shipments", func(r chi.Router) {
				r.Get("/", shipmentHandler.List)
				r.Post("/", shipmentHandler.Create)
				r.Get("/export", shipmentHandler.Export)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", shipmentHandler.Get)
					r.Put("/", shipmentHandler.Update)
					r.Delete("/", shipmentHandler.Delete)
					r.Put("/status", shipmentHandler.UpdateStatus)
				})
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/summary", dashboardHandler.Summary)
				r.Get("/recent", dashboardHandler.Recent)
				r.Get("/statistics", dashboardHandler.Statistics)
			})
		})
	})

	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		r.NotFound(newSPAHandler(cfg.StaticDir).ServeHTTP)
	} else {
		r.NotFound(http.NotFoundHandler().ServeHTTP)
	}

	return r
}
