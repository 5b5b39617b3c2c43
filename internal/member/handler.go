package member

import (
	"foyer-backend/internal/auth"
	"foyer-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// POST /api/members
func CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body CreateMemberInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		created, err := Invite(userID, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// GET /api/members/session/:sessionId
func ListBySessionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		members, err := ListBySession(userID, c.Params("sessionId"))
		if err != nil {
			return err
		}
		return c.JSON(members)
	}
}

// GET /api/members/invite/:token (public: the token is the credential)
func FindByInviteTokenHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		member, err := FindByInviteToken(c.Params("token"))
		if err != nil {
			return err
		}
		return c.JSON(member)
	}
}

// POST /api/members/accept/:token
func AcceptInviteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		member, err := AcceptInvite(c.Params("token"), userID)
		if err != nil {
			return err
		}
		return c.JSON(member)
	}
}

// POST /api/members/decline/:token (public: the token is the credential)
func DeclineInviteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		member, err := DeclineInvite(c.Params("token"))
		if err != nil {
			return err
		}
		return c.JSON(member)
	}
}

// GET /api/members/:id
func GetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		member, err := Get(userID, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(member)
	}
}

// PATCH /api/members/:id
func UpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body UpdateMemberInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		member, err := Update(userID, c.Params("id"), body)
		if err != nil {
			return err
		}
		return c.JSON(member)
	}
}

// PATCH /api/members/:id/role
func ChangeRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body struct {
			Role models.MemberRole `json:"role"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		member, err := ChangeRole(userID, c.Params("id"), body.Role)
		if err != nil {
			return err
		}
		return c.JSON(member)
	}
}

// DELETE /api/members/:id/invite
func RevokeInviteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		if err := RevokeInvite(userID, c.Params("id")); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// DELETE /api/members/:id
func RemoveHandler() fiber.Handler {
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
