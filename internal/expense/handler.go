package expense

import (
	"foyer-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// POST /api/expenses
func CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body CreateExpenseInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		expense, err := Create(userID, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(expense)
	}
}

// GET /api/expenses/session/:sessionId
func ListBySessionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		expenses, err := ListBySession(userID, c.Params("sessionId"))
		if err != nil {
			return err
		}
		return c.JSON(expenses)
	}
}

// PATCH /api/expenses/:id
func UpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body UpdateExpenseInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		expense, err := Update(userID, c.Params("id"), body)
		if err != nil {
			return err
		}
		return c.JSON(expense)
	}
}

// DELETE /api/expenses/:id
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
