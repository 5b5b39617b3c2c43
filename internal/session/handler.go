package session

import (
	"foyer-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// POST /api/sessions
func CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body CreateSessionInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		session, err := Create(userID, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	}
}

// GET /api/sessions
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		sessions, err := ListOwn(userID)
		if err != nil {
			return err
		}
		return c.JSON(sessions)
	}
}

// PATCH /api/sessions/:id
func UpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body UpdateSessionInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		session, err := Update(userID, c.Params("id"), body)
		if err != nil {
			return err
		}
		return c.JSON(session)
	}
}

// PATCH /api/sessions/:id/default
func SetDefaultHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		session, err := SetDefault(userID, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(session)
	}
}

// DELETE /api/sessions/:id
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
