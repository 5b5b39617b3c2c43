package budget

import (
	"time"

	"foyer-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// POST /api/budgets
func CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body CreateBudgetInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		budget, err := Create(userID, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(budget)
	}
}

// GET /api/budgets/session/:sessionId
func ListBySessionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		budgets, err := ListBySession(userID, c.Params("sessionId"))
		if err != nil {
			return err
		}
		return c.JSON(budgets)
	}
}

// GET /api/budgets/session/:sessionId/:month/summary
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		summary, err := Summarize(userID, c.Params("sessionId"), c.Params("month"))
		if err != nil {
			return err
		}
		return c.JSON(summary)
	}
}

// GET /api/budgets/session/:sessionId/current/summary?create=true
func CurrentSummaryHandler(loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		createIfMissing := c.Query("create") == "true"
		summary, err := SummarizeCurrentMonth(userID, c.Params("sessionId"), loc, createIfMissing)
		if err != nil {
			return err
		}
		return c.JSON(summary)
	}
}

// PATCH /api/budgets/:id
func UpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body UpdateBudgetInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		budget, err := Update(userID, c.Params("id"), body)
		if err != nil {
			return err
		}
		return c.JSON(budget)
	}
}

// DELETE /api/budgets/:id
func DeleteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		if err := Remove(userID, c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
