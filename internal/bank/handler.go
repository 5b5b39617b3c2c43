package bank

import (
	"foyer-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// POST /api/bank-accounts
func CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body CreateBankInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		account, err := Create(userID, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(account)
	}
}

// GET /api/bank-accounts/session/:sessionId
func ListBySessionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		accounts, err := ListBySession(userID, c.Params("sessionId"))
		if err != nil {
			return err
		}
		return c.JSON(accounts)
	}
}

// PATCH /api/bank-accounts/:id
func UpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body UpdateBankInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		account, err := Update(userID, c.Params("id"), body)
		if err != nil {
			return err
		}
		return c.JSON(account)
	}
}

// DELETE /api/bank-accounts/:id
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

// POST /api/bank-accounts/:id/members
func AddMembersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body AddMembersInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if err := AddMembers(userID, c.Params("id"), body); err != nil {
			return err
		}

		members, err := accountMembers(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(members)
	}
}

// DELETE /api/bank-accounts/:id/members/:memberId
func RemoveMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		result, err := RemoveMember(userID, c.Params("id"), c.Params("memberId"))
		if err != nil {
			return err
		}
		return c.JSON(result)
	}
}
