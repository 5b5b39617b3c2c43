package audit

import (
	"foyer-backend/internal/access"
	"foyer-backend/internal/auth"
	"foyer-backend/internal/database"
	"foyer-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs/session/:sessionId
func ListBySessionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		sessionID := c.Params("sessionId")

		if _, err := access.ResolveRole(database.DB, sessionID, userID); err != nil {
			return err
		}

		var logs []models.AuditLog
		if err := database.DB.
			Where("session_id = ?", sessionID).
			Order("created_at desc").
			Limit(200).
			Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		return c.JSON(logs)
	}
}
