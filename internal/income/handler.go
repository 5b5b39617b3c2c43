package income

import (
	"foyer-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// POST /api/incomes
func CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body CreateIncomeInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		income, err := Create(userID, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(income)
	}
}

// GET /api/incomes/session/:sessionId
func ListBySessionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		incomes, err := ListBySession(userID, c.Params("sessionId"))
		if err != nil {
			return err
		}
		return c.JSON(incomes)
	}
}

// PATCH /api/incomes/:id
func UpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body UpdateIncomeInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		income, err := Update(userID, c.Params("id"), body)
		if err != nil {
			return err
		}
		return c.JSON(income)
	}
}

// DELETE /api/incomes/:id
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
