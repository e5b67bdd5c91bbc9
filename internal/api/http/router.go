package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/todo-service/internal/api/http/handlers"
	"github.com/spec-kit/todo-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tasks          *handlers.TasksHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. /auth/** is unauthenticated; everything
// else requires a bearer token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	tasks := app.Group("/tasks", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tasks.Get("/", cfg.Tasks.List)
	tasks.Post("/", cfg.Tasks.Create)
	tasks.Put("/:id", cfg.Tasks.Update)
	tasks.Delete("/:id", cfg.Tasks.Delete)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/users", cfg.Admin.ListUsers)
}
