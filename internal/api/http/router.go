package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/suporte-ops/ticket-desk/internal/api/http/handlers"
	"github.com/suporte-ops/ticket-desk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health              *handlers.HealthHandler
	Tickets             *handlers.TicketsHandler
	Approvals           *handlers.ApprovalsHandler
	Teams               *handlers.TeamsHandler
	AuthMiddleware      *auth.AuthMiddleware
	StatusCallbackToken string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Post("/auth/teams/login", cfg.Teams.Login)

	// Automation callback, registered before the authenticated /tickets/:id routes.
	app.Post("/tickets/status", auth.RequireCallbackToken(cfg.StatusCallbackToken), cfg.Tickets.StatusCallback)

	authn := cfg.AuthMiddleware.Handle
	anyTeam := auth.RequireTeam()
	admin := auth.RequireTeam(auth.AdminTeams()...)

	tickets := app.Group("/tickets", authn)
	tickets.Post("", auth.RequireTeam(auth.SubmitterTeams()...), cfg.Tickets.SubmitTicket)
	tickets.Get("", anyTeam, cfg.Tickets.ListTickets)
	tickets.Get("/:id", anyTeam, cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", anyTeam, cfg.Tickets.ListHistory)
	tickets.Patch("/:id/flags", anyTeam, cfg.Tickets.SetFlag)
	tickets.Patch("/:id/notes", anyTeam, cfg.Tickets.SetNotes)
	tickets.Post("/:id/redispatch", admin, cfg.Tickets.Redispatch)
	tickets.Post("/:id/approval", admin, cfg.Tickets.EnsureApproval)

	approvals := app.Group("/approvals", authn)
	approvals.Get("", anyTeam, cfg.Approvals.ListApprovals)
	approvals.Post("/:id/resolve", auth.RequireTeam(auth.ApproverTeams()...), cfg.Approvals.ResolveApproval)

	attendants := app.Group("/attendants", authn)
	attendants.Get("", anyTeam, cfg.Teams.ListAttendants)
	attendants.Post("", admin, cfg.Teams.CreateAttendant)
	attendants.Delete("/:id", admin, cfg.Teams.DeactivateAttendant)

	teams := app.Group("/teams", authn)
	teams.Get("", anyTeam, cfg.Teams.ListTeams)
	teams.Put("/:id/secret", admin, cfg.Teams.ChangeSecret)

	app.Get("/dispatches/failed", authn, admin, cfg.Tickets.FailedDispatches)
}
