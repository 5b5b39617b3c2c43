package transaction

import (
	"time"

	"foyer-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// POST /api/transactions
func CreateHandler(loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body CreateTransactionInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		tr, err := Create(userID, body, loc)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(tr)
	}
}

// GET /api/transactions/session/:sessionId?from=...&to=...
func ListBySessionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		transactions, err := ListBySession(userID, c.Params("sessionId"), c.Query("from"), c.Query("to"))
		if err != nil {
			return err
		}
		return c.JSON(transactions)
	}
}

// PATCH /api/transactions/:id
func UpdateHandler(loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body UpdateTransactionInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		tr, err := Update(userID, c.Params("id"), body, loc)
		if err != nil {
			return err
		}
		return c.JSON(tr)
	}
}

// DELETE /api/transactions/:id
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
