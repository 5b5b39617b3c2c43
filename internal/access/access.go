// Package access is the single authorization gate for session-scoped
// resources. Every resource service calls ResolveRole before a read and
// RequireManage before a mutation; none of them re-implement the
// owner-versus-member lookup.
package access

import (
	"errors"

	"foyer-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ResolveRole returns the effective role of userID in the session: OWNER for
// the session owner (owners never have a Member row), the stored role for an
// ACCEPTED member, 404 if the session does not exist and 403 otherwise.
func ResolveRole(db *gorm.DB, sessionID, userID string) (models.MemberRole, error) {
	var session models.Session
	if err := db.Select("id", "owner_id").First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fiber.NewError(fiber.StatusNotFound, "Session not found")
		}
		return "", fiber.NewError(fiber.StatusInternalServerError, "Could not load session")
	}
	if session.OwnerID == userID {
		return models.RoleOwner, nil
	}

	var member models.Member
	err := db.Select("role").
		Where("session_id = ? AND user_id = ? AND invitation_status = ?", sessionID, userID, models.InvitationAccepted).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fiber.NewError(fiber.StatusForbidden, "Access to this session denied")
		}
		return "", fiber.NewError(fiber.StatusInternalServerError, "Could not load membership")
	}
	return member.Role, nil
}

// RequireManage resolves the role and rejects VIEWER. OWNER and COLLABORATOR
// may create/update/delete domain records.
func RequireManage(db *gorm.DB, sessionID, userID string) (models.MemberRole, error) {
	role, err := ResolveRole(db, sessionID, userID)
	if err != nil {
		return "", err
	}
	if role == models.RoleViewer {
		return "", fiber.NewError(fiber.StatusForbidden, "Insufficient rights for this session")
	}
	return role, nil
}

// CheckCoherence validates that the referenced member and/or bank account
// exist, belong to sessionID, and (for members) have an ACCEPTED invitation.
// Nil references are skipped.
func CheckCoherence(db *gorm.DB, sessionID string, memberID, bankAccountID *string) error {
	if bankAccountID != nil {
		var account models.BankAccount
		if err := db.Select("id", "session_id").First(&account, "id = ?", *bankAccountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Bank account not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load bank account")
		}
		if account.SessionID != sessionID {
			return fiber.NewError(fiber.StatusBadRequest, "bankAccountId does not belong to this session")
		}
	}

	if memberID != nil {
		var member models.Member
		if err := db.Select("id", "session_id", "invitation_status").First(&member, "id = ?", *memberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Member not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load member")
		}
		if member.SessionID != sessionID {
			return fiber.NewError(fiber.StatusBadRequest, "memberId does not belong to this session")
		}
		if member.InvitationStatus != models.InvitationAccepted {
			return fiber.NewError(fiber.StatusBadRequest, "This member has not joined the session yet (invitation not accepted)")
		}
	}

	return nil
}
