package member

import (
	"errors"
	"fmt"
	"time"

	"foyer-backend/internal/access"
	"foyer-backend/internal/audit"
	"foyer-backend/internal/database"
	"foyer-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateMemberInput struct {
	SessionID    string             `json:"sessionId"`
	UserID       *string            `json:"userId"`
	InvitedEmail *string            `json:"invitedEmail"`
	Name         *string            `json:"name"`
	Role         *models.MemberRole `json:"role"`
}

type UpdateMemberInput struct {
	Name *string `json:"name"`
}

// InviteResult carries the created member plus, on the invited-email path
// only, the one-time invite token. The token is never serialized from the
// Member model itself.
type InviteResult struct {
	models.Member
	InviteToken string `json:"inviteToken,omitempty"`
}

func validRole(r models.MemberRole) bool {
	switch r {
	case models.RoleOwner, models.RoleCollaborator, models.RoleViewer:
		return true
	}
	return false
}

// Invite creates a member row in one of its three shapes: linked (userId),
// invited (invitedEmail, starts PENDING with a live token) or placeholder
// (name, no login). Session owner only.
func Invite(requesterUserID string, in CreateMemberInput) (*InviteResult, error) {
	var session models.Session
	if err := database.DB.Select("id", "owner_id").First(&session, "id = ?", in.SessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Session not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load session")
	}
	if session.OwnerID != requesterUserID {
		return nil, fiber.NewError(fiber.StatusForbidden, "Only the owner can add members")
	}

	provided := 0
	for _, set := range []bool{in.UserID != nil, in.InvitedEmail != nil, in.Name != nil} {
		if set {
			provided++
		}
	}
	if provided != 1 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Provide exactly one of 'userId', 'invitedEmail' or 'name'")
	}

	role := models.RoleCollaborator
	if in.Role != nil {
		if !validRole(*in.Role) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "role must be OWNER, COLLABORATOR or VIEWER")
		}
		role = *in.Role
	}

	member := models.Member{
		SessionID: in.SessionID,
		Role:      role,
	}
	exposeToken := ""

	switch {
	case in.UserID != nil:
		var dup models.Member
		err := database.DB.Select("id").
			Where("session_id = ? AND user_id = ?", in.SessionID, *in.UserID).
			First(&dup).Error
		if err == nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "This user is already a member of the session")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not check membership")
		}

		now := time.Now()
		member.UserID = in.UserID
		member.InvitationStatus = models.InvitationAccepted
		member.AcceptedAt = &now

	case in.InvitedEmail != nil:
		var pending models.Member
		err := database.DB.Select("id").
			Where("session_id = ? AND invited_email = ? AND invitation_status = ?",
				in.SessionID, *in.InvitedEmail, models.InvitationPending).
			First(&pending).Error
		if err == nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "An invitation is already pending for this email")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not check invitations")
		}

		// A user with this email may already be an accepted member. Only an
		// ACCEPTED row blocks the invite: a declined or stale row is merged
		// by AcceptInvite when the user consumes the new token.
		var user models.User
		if err := database.DB.Select("id").Where("email = ?", *in.InvitedEmail).First(&user).Error; err == nil {
			var already models.Member
			err := database.DB.Select("id").
				Where("session_id = ? AND user_id = ? AND invitation_status = ?",
					in.SessionID, user.ID, models.InvitationAccepted).
				First(&already).Error
			if err == nil {
				return nil, fiber.NewError(fiber.StatusBadRequest, "This user is already a member of the session")
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not check membership")
			}
		}

		token := uuid.NewString()
		now := time.Now()
		member.InvitedEmail = in.InvitedEmail
		member.InviteToken = &token
		member.InvitationStatus = models.InvitationPending
		member.InvitedAt = &now
		exposeToken = token

	case in.Name != nil:
		var sameName models.Member
		err := database.DB.Select("id").
			Where("session_id = ? AND name = ? AND is_placeholder = ?", in.SessionID, *in.Name, true).
			First(&sameName).Error
		if err == nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "A placeholder member with this name already exists in this session")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not check members")
		}

		now := time.Now()
		member.Name = in.Name
		member.IsPlaceholder = true
		member.InvitationStatus = models.InvitationAccepted
		member.AcceptedAt = &now
	}

	if err := database.DB.Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Duplicate member for this session")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not create member")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   member.SessionID,
		UserID:      requesterUserID,
		EntityType:  "member",
		EntityID:    member.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Member added (role %s)", member.Role),
	})

	return &InviteResult{Member: member, InviteToken: exposeToken}, nil
}

// ListBySession returns the session's members, newest first. Participants
// only; invite tokens are never serialized.
func ListBySession(requesterUserID, sessionID string) ([]models.Member, error) {
	if _, err := access.ResolveRole(database.DB, sessionID, requesterUserID); err != nil {
		return nil, err
	}

	var members []models.Member
	if err := database.DB.
		Preload("User").
		Where("session_id = ?", sessionID).
		Order("created_at desc").
		Find(&members).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not list members")
	}
	return members, nil
}

// FindByInviteToken resolves a pending invitation for display on the invite
// landing page. Public: no requester, and the token itself is not echoed.
func FindByInviteToken(token string) (*models.Member, error) {
	var member models.Member
	if err := database.DB.
		Preload("Session").
		Where("invite_token = ?", token).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Invitation invalid or expired")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load invitation")
	}
	return &member, nil
}

// Get returns one member. Accessible to the session's participants.
func Get(requesterUserID, memberID string) (*models.Member, error) {
	var member models.Member
	if err := database.DB.Preload("User").First(&member, "id = ?", memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Member not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load member")
	}

	if _, err := access.ResolveRole(database.DB, member.SessionID, requesterUserID); err != nil {
		return nil, err
	}
	return &member, nil
}

// Update renames a member (role changes go through ChangeRole). OWNER or
// COLLABORATOR of the session.
func Update(requesterUserID, memberID string, in UpdateMemberInput) (*models.Member, error) {
	var member models.Member
	if err := database.DB.First(&member, "id = ?", memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Member not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load member")
	}

	if _, err := access.RequireManage(database.DB, member.SessionID, requesterUserID); err != nil {
		return nil, err
	}

	if in.Name != nil {
		var sameName models.Member
		err := database.DB.Select("id").
			Where("session_id = ? AND name = ? AND is_placeholder = ? AND id <> ?",
				member.SessionID, *in.Name, true, member.ID).
			First(&sameName).Error
		if err == nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "A placeholder member with this name already exists in this session")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not check members")
		}
		member.Name = in.Name
	}

	if err := database.DB.Save(&member).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not update member")
	}
	return &member, nil
}

// ChangeRole updates a member's role. OWNER or COLLABORATOR may shuffle
// COLLABORATOR/VIEWER; any move that grants or revokes OWNER requires the
// requester to hold the OWNER role itself.
func ChangeRole(requesterUserID, memberID string, newRole models.MemberRole) (*models.Member, error) {
	if !validRole(newRole) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "role must be OWNER, COLLABORATOR or VIEWER")
	}

	var target models.Member
	if err := database.DB.First(&target, "id = ?", memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Member not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load member")
	}

	requesterRole, err := access.ResolveRole(database.DB, target.SessionID, requesterUserID)
	if err != nil {
		return nil, err
	}
	if requesterRole == models.RoleViewer {
		return nil, fiber.NewError(fiber.StatusForbidden, "Insufficient rights to change roles")
	}
	if newRole == models.RoleOwner || target.Role == models.RoleOwner {
		if requesterRole != models.RoleOwner {
			return nil, fiber.NewError(fiber.StatusForbidden, "Only the owner can touch the OWNER role")
		}
	}

	oldRole := target.Role
	target.Role = newRole
	if err := database.DB.Save(&target).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not update role")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   target.SessionID,
		UserID:      requesterUserID,
		EntityType:  "member",
		EntityID:    target.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Role changed: %s -> %s", oldRole, newRole),
	})

	return &target, nil
}

// AcceptInvite consumes a pending invite token for userID. If the user
// already has a member row in the session (re-invite), that row is promoted
// and the invitation row deleted; the two writes run in one transaction so a
// crash can never leave two rows for one user.
func AcceptInvite(token, userID string) (*models.Member, error) {
	var result models.Member

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var invite models.Member
		if err := tx.Where("invite_token = ?", token).First(&invite).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Invitation invalid or expired")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load invitation")
		}
		if invite.InvitationStatus == models.InvitationAccepted {
			return fiber.NewError(fiber.StatusBadRequest, "This invitation has already been accepted")
		}

		var existing models.Member
		err := tx.Where("session_id = ? AND user_id = ?", invite.SessionID, userID).First(&existing).Error
		switch {
		case err == nil:
			// Merge: promote the existing row, drop the invitation row.
			now := time.Now()
			existing.InvitationStatus = models.InvitationAccepted
			if existing.AcceptedAt == nil {
				existing.AcceptedAt = &now
			}
			existing.IsPlaceholder = false
			if err := tx.Save(&existing).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not update membership")
			}
			if err := tx.Delete(&models.Member{}, "id = ?", invite.ID).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not remove invitation")
			}
			result = existing
			return nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			now := time.Now()
			invite.UserID = &userID
			invite.InvitationStatus = models.InvitationAccepted
			invite.AcceptedAt = &now
			invite.IsPlaceholder = false
			invite.InviteToken = nil
			if err := tx.Save(&invite).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not accept invitation")
			}
			result = invite
			return nil

		default:
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check membership")
		}
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// DeclineInvite consumes a token negatively. The token is cleared, so a
// declined invitation can never be accepted afterwards.
func DeclineInvite(token string) (*models.Member, error) {
	var invite models.Member
	if err := database.DB.Where("invite_token = ?", token).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Invitation invalid or expired")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load invitation")
	}
	if invite.InvitationStatus == models.InvitationAccepted {
		return nil, fiber.NewError(fiber.StatusBadRequest, "This invitation has already been accepted")
	}

	invite.InvitationStatus = models.InvitationDeclined
	invite.InviteToken = nil
	invite.AcceptedAt = nil
	if err := database.DB.Save(&invite).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not decline invitation")
	}
	return &invite, nil
}

// RevokeInvite deletes a still-pending invitation. OWNER or COLLABORATOR.
func RevokeInvite(requesterUserID, memberID string) error {
	var invite models.Member
	if err := database.DB.First(&invite, "id = ?", memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Invitation not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load invitation")
	}

	if _, err := access.RequireManage(database.DB, invite.SessionID, requesterUserID); err != nil {
		return err
	}

	if invite.InvitationStatus == models.InvitationAccepted || invite.UserID != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot revoke: member is already attached")
	}

	if err := database.DB.Delete(&models.Member{}, "id = ?", memberID).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not revoke invitation")
	}
	return nil
}

// Remove deletes a member row unconditionally. OWNER or COLLABORATOR. There
// is deliberately no guard against removing the last collaborator: the owner
// keeps implicit control of the session.
func Remove(requesterUserID, memberID string) error {
	var member models.Member
	if err := database.DB.First(&member, "id = ?", memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Member not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load member")
	}

	if _, err := access.RequireManage(database.DB, member.SessionID, requesterUserID); err != nil {
		return err
	}

	if err := database.DB.Delete(&models.Member{}, "id = ?", memberID).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not remove member")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   member.SessionID,
		UserID:      requesterUserID,
		EntityType:  "member",
		EntityID:    member.ID,
		Action:      models.AuditActionDelete,
		Description: "Member removed",
	})

	return nil
}
