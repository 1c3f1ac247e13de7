package http

import (
	nethttp "net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/observability"
)

// RouterDependencies bundles everything the route table needs.
type RouterDependencies struct {
	AuthHandler    *handlers.AuthHandler
	TicketsHandler *handlers.TicketsHandler
	SupportHandler *handlers.SupportHandler
	AdminHandler   *handlers.AdminHandler
	HealthHandler  *handlers.HealthHandler
	AuthMiddleware *auth.AuthMiddleware
	MetricsHandler nethttp.Handler
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// RegisterRoutes wires middleware and the route table onto the app.
func RegisterRoutes(app *fiber.App, deps RouterDependencies) {
	// Logger first so it observes the status written by the error
	// handler.
	app.Use(observability.RequestLogger(deps.Logger, deps.Metrics))
	app.Use(ErrorHandler(deps.Logger, deps.Metrics))

	app.Get("/", deps.HealthHandler.Root)
	app.Get("/health/live", deps.HealthHandler.Live)
	app.Get("/health/ready", deps.HealthHandler.Ready)
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", deps.AuthHandler.Signup)
	authRoutes.Post("/login", deps.AuthHandler.Login)
	authRoutes.Get("/profile", deps.AuthMiddleware.Handle, deps.AuthHandler.Profile)

	// Legacy categorization stub, unauthenticated as in the original API.
	api.Post("/generate_ticket", deps.TicketsHandler.GenerateTicket)

	tickets := api.Group("/tickets", deps.AuthMiddleware.Handle, auth.Apply(auth.RequireAuthenticated()))
	tickets.Post("/", deps.TicketsHandler.Create)
	tickets.Get("/", deps.TicketsHandler.ListOwned)
	tickets.Put("/:id/cancel", deps.TicketsHandler.Cancel)

	support := api.Group("/support", deps.AuthMiddleware.Handle, auth.Apply(auth.RequireRole(domain.RoleSupport)))
	support.Get("/tickets", deps.SupportHandler.ListCategory)
	support.Put("/tickets/:id", deps.SupportHandler.UpdateTicket)

	admin := api.Group("/admin", deps.AuthMiddleware.Handle, auth.Apply(auth.RequireRole(domain.RoleAdmin)))
	admin.Get("/users", deps.AdminHandler.ListUsers)
	admin.Post("/users", deps.AdminHandler.CreateUser)
	admin.Put("/users/:id", deps.AdminHandler.UpdateUser)
	admin.Delete("/users/:id", deps.AdminHandler.DeleteUser)
	admin.Get("/tickets", deps.AdminHandler.ListTickets)
	admin.Put("/tickets/:id/status", deps.AdminHandler.UpdateTicketStatus)
	admin.Put("/tickets/:id/assign", deps.AdminHandler.AssignTicket)
	admin.Get("/stats", deps.AdminHandler.Stats)

	app.Use(NotFoundHandler)
}
