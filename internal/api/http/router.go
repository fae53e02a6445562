package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pezhmanazar/phoenix-admin/internal/api/http/handlers"
	"github.com/pezhmanazar/phoenix-admin/internal/auth"
)

// APIPrefix is the same-origin path the admin console calls.
const APIPrefix = "/api"

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Proxy   *handlers.ProxyHandler
	Session *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group(APIPrefix, cfg.Session.Handle)
	api.Post("/tickets/:id/reply", cfg.Proxy.Reply)
	api.Post("/tickets/:id/reply-upload", cfg.Proxy.Reply)
	api.All("/*", cfg.Proxy.Forward)
}
