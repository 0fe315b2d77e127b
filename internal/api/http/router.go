package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/access"
	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Gate           *access.Gate
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Requests       *handlers.RequestsHandler
	Assignments    *handlers.AssignmentsHandler
	Machines       *handlers.MachinesHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Users.Login)

	protect := cfg.AuthMiddleware.Handle

	requests := app.Group("/requests", protect)
	requests.Get("/", cfg.Requests.List)
	requests.Post("/", cfg.Requests.Create)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Patch("/:id", cfg.Requests.Update)
	requests.Delete("/:id", cfg.Requests.Delete)
	requests.Patch("/:id/status", cfg.Requests.UpdateStatus)
	requests.Post("/:id/deletion-requests", cfg.Requests.RequestDeletion)
	requests.Get("/:id/history", cfg.Requests.History)
	requests.Post("/:id/resolution", cfg.Requests.ProposeResolution)
	requests.Post("/:id/resolution/decision", cfg.Requests.DecideResolution)
	requests.Post("/:id/assignment", cfg.Assignments.Assign)
	requests.Put("/:id/assignment", cfg.Assignments.Reassign)
	requests.Delete("/:id/assignment", cfg.Assignments.Unassign)

	assignments := app.Group("/assignments", protect)
	assignments.Get("/", auth.RequireAction(cfg.Gate, access.ActionGetAllAssignments), cfg.Assignments.List)
	assignments.Get("/:id", cfg.Assignments.Get)
	assignments.Delete("/:id", cfg.Assignments.Delete)

	app.Get("/technicians/:id/assignments", protect, cfg.Assignments.ListForTechnician)
	app.Get("/deletion-requests", protect, auth.RequireAction(cfg.Gate, access.ActionDeleteRequest), cfg.Requests.ListDeletionRequests)

	machines := app.Group("/machines", protect)
	machines.Get("/", cfg.Machines.List)
	machines.Post("/", cfg.Machines.Create)
	machines.Patch("/:id", cfg.Machines.Update)
	machines.Delete("/:id", cfg.Machines.Delete)

	users := app.Group("/users", protect, auth.RequireAction(cfg.Gate, access.ActionViewUsers))
	users.Get("/", cfg.Users.List)
	users.Post("/", cfg.Users.Create)
	users.Patch("/:id/role", cfg.Users.UpdateRole)
	users.Delete("/:id", cfg.Users.Remove)

	notifications := app.Group("/notifications", protect)
	notifications.Get("/", cfg.Notifications.List)
	notifications.Patch("/:id/read", cfg.Notifications.MarkRead)
	notifications.Delete("/:id", cfg.Notifications.Delete)
}
