package main

import (
	"log"
	"strings"

	"foyer-backend/internal/audit"
	"foyer-backend/internal/auth"
	"foyer-backend/internal/bank"
	"foyer-backend/internal/budget"
	"foyer-backend/internal/config"
	"foyer-backend/internal/database"
	"foyer-backend/internal/expense"
	"foyer-backend/internal/income"
	"foyer-backend/internal/member"
	"foyer-backend/internal/session"
	"foyer-backend/internal/transaction"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/signup", auth.SignupHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Public invitation lookup/decline: the invite token is the credential.
	api.Get("/members/invite/:token", member.FindByInviteTokenHandler())
	api.Post("/members/decline/:token", member.DeclineInviteHandler())

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Sessions
	protected.Post("/sessions", session.CreateHandler())
	protected.Get("/sessions", session.ListHandler())
	protected.Patch("/sessions/:id", session.UpdateHandler())
	protected.Patch("/sessions/:id/default", session.SetDefaultHandler())
	protected.Delete("/sessions/:id", session.DeleteHandler())

	// Members & invitations
	protected.Post("/members", member.CreateHandler())
	protected.Get("/members/session/:sessionId", member.ListBySessionHandler())
	protected.Post("/members/accept/:token", member.AcceptInviteHandler())
	protected.Get("/members/:id", member.GetHandler())
	protected.Patch("/members/:id", member.UpdateHandler())
	protected.Patch("/members/:id/role", member.ChangeRoleHandler())
	protected.Delete("/members/:id/invite", member.RevokeInviteHandler())
	protected.Delete("/members/:id", member.RemoveHandler())

	// Bank accounts
	protected.Post("/bank-accounts", bank.CreateHandler())
	protected.Get("/bank-accounts/session/:sessionId", bank.ListBySessionHandler())
	protected.Patch("/bank-accounts/:id", bank.UpdateHandler())
	protected.Delete("/bank-accounts/:id", bank.DeleteHandler())
	protected.Post("/bank-accounts/:id/members", bank.AddMembersHandler())
	protected.Delete("/bank-accounts/:id/members/:memberId", bank.RemoveMemberHandler())

	// Planned incomes & expenses
	protected.Post("/incomes", income.CreateHandler())
	protected.Get("/incomes/session/:sessionId", income.ListBySessionHandler())
	protected.Patch("/incomes/:id", income.UpdateHandler())
	protected.Delete("/incomes/:id", income.DeleteHandler())

	protected.Post("/expenses", expense.CreateHandler())
	protected.Get("/expenses/session/:sessionId", expense.ListBySessionHandler())
	protected.Patch("/expenses/:id", expense.UpdateHandler())
	protected.Delete("/expenses/:id", expense.DeleteHandler())

	// Budgets & monthly summaries
	protected.Post("/budgets", budget.CreateHandler())
	protected.Get("/budgets/session/:sessionId", budget.ListBySessionHandler())
	protected.Get("/budgets/session/:sessionId/current/summary", budget.CurrentSummaryHandler(cfg.Location))
	protected.Get("/budgets/session/:sessionId/:month/summary", budget.SummaryHandler())
	protected.Patch("/budgets/:id", budget.UpdateHandler())
	protected.Delete("/budgets/:id", budget.DeleteHandler())

	// Transactions
	protected.Post("/transactions", transaction.CreateHandler(cfg.Location))
	protected.Get("/transactions/session/:sessionId", transaction.ListBySessionHandler())
	protected.Patch("/transactions/:id", transaction.UpdateHandler(cfg.Location))
	protected.Delete("/transactions/:id", transaction.DeleteHandler())

	// Audit logs
	protected.Get("/audit-logs/session/:sessionId", audit.ListBySessionHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
