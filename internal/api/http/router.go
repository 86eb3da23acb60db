package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-mailroom/internal/api/http/handlers"
	"github.com/spec-kit/ticket-mailroom/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Tickets       *handlers.TicketsHandler
	Inbound       *handlers.InboundHandler
	Tokens        *auth.TokenManager
	WebhookSecret string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/tickets", cfg.Tickets.CreateTicket)
	app.Get("/tickets/:ticketId/messages", cfg.Tickets.GetConversation)
	app.Get("/conversation", cfg.Tickets.GetConversation)
	app.Post("/feedback", cfg.Tickets.SubmitFeedback)

	app.Post("/inbound/email", auth.RequireWebhookSecret(cfg.WebhookSecret), cfg.Inbound.Webhook)

	admin := app.Group("/admin", auth.RequireAdmin(cfg.Tokens))
	admin.Post("/tickets/:ticketId/reply", cfg.Tickets.Reply)
	admin.Post("/tickets/:ticketId/status", cfg.Tickets.UpdateStatus)
	admin.Post("/inbound/poll", cfg.Inbound.PollNow)
}
