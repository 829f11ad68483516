package server

import (
	"net/http"

	"github.com/cloo-solutions/hrassist/internal/api/handlers"
	"github.com/cloo-solutions/hrassist/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	AdminAPIKey   string
	ChatHandler   *handlers.ChatHandler
	TicketHandler *handlers.TicketHandler
	SystemHandler *handlers.SystemHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 << 20

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Admin-Key", "X-Request-ID", "X-User-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.UserIdentity)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", cfg.SystemHandler.Health)
		r.Post("/validate-user", cfg.SystemHandler.ValidateUser)

		r.Post("/chat", cfg.ChatHandler.Chat)
		r.Post("/contact-hr", cfg.ChatHandler.ContactHR)
		r.Post("/ticket", cfg.TicketHandler.Create)

		r.With(middleware.AdminKeyAuth(cfg.AdminAPIKey)).Post("/ingest", cfg.SystemHandler.Ingest)

		if cfg.AdminAPIKey != "" {
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminKeyAuth(cfg.AdminAPIKey))
				r.Get("/tickets", cfg.TicketHandler.List)
				r.Get("/tickets/{id}", cfg.TicketHandler.Get)
			})
		}
	})

	return r
}
