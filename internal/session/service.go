package session

import (
	"errors"

	"foyer-backend/internal/database"
	"foyer-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateSessionInput struct {
	Name string `json:"name"`
}

type UpdateSessionInput struct {
	Name *string `json:"name"`
}

// Create makes a new session for ownerID and promotes it to the default one.
// Demoting the previous defaults and creating the new row happen in a single
// transaction so two defaults can never coexist.
func Create(ownerID string, in CreateSessionInput) (*models.Session, error) {
	if in.Name == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	session := models.Session{
		OwnerID:   ownerID,
		Name:      in.Name,
		IsDefault: true,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Session{}).
			Where("owner_id = ? AND is_default = ?", ownerID, true).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Create(&session).Error
	})
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not create session")
	}

	return &session, nil
}

// ListOwn returns the sessions owned by userID, newest first.
func ListOwn(userID string) ([]models.Session, error) {
	var sessions []models.Session
	if err := database.DB.
		Where("owner_id = ?", userID).
		Order("created_at desc").
		Find(&sessions).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not list sessions")
	}
	return sessions, nil
}

func loadOwned(userID, sessionID string) (*models.Session, error) {
	var session models.Session
	if err := database.DB.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Session not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load session")
	}
	if session.OwnerID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "You are not allowed to modify this session")
	}
	return &session, nil
}

// Update renames a session. Owner only.
func Update(userID, sessionID string, in UpdateSessionInput) (*models.Session, error) {
	session, err := loadOwned(userID, sessionID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		session.Name = *in.Name
	}

	if err := database.DB.Save(session).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not update session")
	}
	return session, nil
}

// SetDefault marks one owned session as default. Demote-all plus set-one run
// in a single transaction for the same reason as Create.
func SetDefault(userID, sessionID string) (*models.Session, error) {
	session, err := loadOwned(userID, sessionID)
	if err != nil {
		return nil, err
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Session{}).
			Where("owner_id = ?", userID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Session{}).
			Where("id = ?", sessionID).
			Update("is_default", true).Error
	})
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not set default session")
	}

	session.IsDefault = true
	return session, nil
}

// Remove deletes an owned session.
func Remove(userID, sessionID string) error {
	session, err := loadOwned(userID, sessionID)
	if err != nil {
		return err
	}

	if err := database.DB.Delete(session).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not delete session")
	}
	return nil
}
