package audit

import (
	"fmt"

	"foyer-backend/internal/database"
	"foyer-backend/internal/models"
)

type LogOptions struct {
	SessionID   string
	UserID      string
	UserEmail   string
	EntityType  string
	EntityID    string
	Action      models.AuditAction
	Description string
}

// WriteLog records one mutation in the session's activity log. Failures are
// not fatal to the request; callers ignore the error.
//
// UserEmail is a denormalized snapshot so log rows survive user deletion;
// when the caller does not pass it, it is resolved from the user row at
// write time.
func WriteLog(opts LogOptions) error {
	if opts.UserEmail == "" && opts.UserID != "" {
		var user models.User
		if err := database.DB.Select("email").First(&user, "id = ?", opts.UserID).Error; err == nil {
			opts.UserEmail = user.Email
		}
	}

	entry := models.AuditLog{
		SessionID:   opts.SessionID,
		UserID:      opts.UserID,
		UserEmail:   opts.UserEmail,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
	}

	if err := database.DB.Create(&entry).Error; err != nil {
		return fmt.Errorf("could not write audit log: %w", err)
	}

	return nil
}
