package routes

import (
	"github.com/gofiber/fiber/v2"

	"automatisierung-backend/controllers"
	"automatisierung-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)
	api.Post("/contact", controllers.CreateContactSubmission)
	api.Get("/templates", controllers.GetTemplates)
	api.Get("/template/:slug", controllers.GetTemplateBySlug)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// The webhook execute route never runs inside the request TX: the
	// external call must not hold a transaction open for its duration.
	protected.Post("/automation/:id/execute", controllers.ExecuteWebhook)

	// Everything below runs in a per-request transaction.
	data := protected.Group("", middlewares.RequestTx())

	// Automations
	data.Post("/automation", controllers.CreateAutomation)
	data.Get("/automations", controllers.GetAutomations)
	data.Get("/automation/:id", controllers.GetAutomation)
	data.Put("/automation/:id", controllers.UpdateAutomation)
	data.Put("/automation/:id/toggle", controllers.ToggleAutomation)
	data.Delete("/automation/:id", controllers.DeleteAutomation)

	// Clients
	data.Post("/client", controllers.CreateClient)
	data.Get("/clients", controllers.GetClients)
	data.Get("/client/:id", controllers.GetClient)
	data.Put("/client/:id", controllers.UpdateClient)
	data.Delete("/client/:id", controllers.DeleteClient)

	// Client-automation assignments
	data.Post("/client/:id/automations", controllers.AssignAutomation)
	data.Get("/client/:id/automations", controllers.GetClientAutomations)
	data.Put("/client/:id/automations/:automationId/toggle", controllers.ToggleClientAutomation)

	// Credits (user ledger + client ledgers)
	data.Get("/credits/balance", controllers.GetCreditBalance)
	data.Get("/credits", controllers.GetCredits)
	data.Post("/credits", controllers.CreateCredit)
	data.Get("/client/:id/credits/balance", controllers.GetClientCreditBalance)
	data.Get("/client/:id/credits", controllers.GetClientCredits)
	data.Post("/client/:id/credits", controllers.CreateClientCredit)

	// Execution history
	data.Get("/executions", controllers.GetExecutions)
	data.Get("/execution/:id", controllers.GetExecution)
	data.Get("/client/:id/executions", controllers.GetClientExecutions)

	// Template shop management
	data.Post("/template", controllers.CreateTemplate)
	data.Put("/template/:id", controllers.UpdateTemplate)
	data.Delete("/template/:id", controllers.DeleteTemplate)

	// Contact inbox
	data.Get("/contact-submissions", controllers.GetContactSubmissions)
	data.Put("/contact-submission/:id/handled", controllers.MarkContactSubmissionHandled)
}
