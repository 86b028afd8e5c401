package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"fabric-agent/internal/handlers"
	"fabric-agent/internal/middleware"
)

// New wires the three public routes. chatLimiter may be nil to disable
// rate limiting on /chat.
func New(
	uiHandler *handlers.UIHandler,
	chatHandler *handlers.ChatHandler,
	healthHandler *handlers.HealthHandler,
	chatLimiter *middleware.RateLimiter,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware. RealIP trusts X-Forwarded-For / X-Real-IP, and the
	// /chat limiter keys on the result, so this assumes a proxy in front
	// (Azure App Service) that overwrites those headers.
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)

	r.Get("/", uiHandler.Index)
	r.Get("/health", healthHandler.Health)

	r.Group(func(r chi.Router) {
		if chatLimiter != nil {
			r.Use(chatLimiter.Middleware)
		}
		r.Post("/chat", chatHandler.Chat)
	})

	return r
}
