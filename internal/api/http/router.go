package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/autoescola/admin-service/internal/api/http/handlers"
	"github.com/autoescola/admin-service/internal/auth"
	"github.com/autoescola/admin-service/internal/statements"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Statements     *handlers.StatementsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/auth/login", cfg.Auth.Login)

	users := api.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/me", cfg.Users.Me)
	users.Get("/", cfg.Users.List)
	users.Post("/", cfg.Users.Create)
	users.Put("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)

	consult := auth.RequirePermission(statements.PermissionConsult)
	api.Get("/extrato", cfg.AuthMiddleware.Handle, consult, cfg.Statements.Statement)
	api.Get("/unidades", cfg.AuthMiddleware.Handle, consult, cfg.Statements.Units)
}
