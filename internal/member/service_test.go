package member

import (
	"fmt"
	"testing"

	"foyer-backend/internal/database"
	"foyer-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedSession(t *testing.T, db *gorm.DB, ownerID string) models.Session {
	t.Helper()
	sess := models.Session{OwnerID: ownerID, Name: "Household", IsDefault: true}
	require.NoError(t, db.Create(&sess).Error)
	return sess
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var e *fiber.Error
	require.ErrorAs(t, err, &e)
	return e.Code
}

func strptr(s string) *string { return &s }

func TestInviteRequiresExactlyOneIdentity(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	sess := seedSession(t, db, owner.ID)

	_, err := Invite(owner.ID, CreateMemberInput{SessionID: sess.ID})
	require.Equal(t, fiber.StatusBadRequest, statusOf(t, err))

	_, err = Invite(owner.ID, CreateMemberInput{
		SessionID:    sess.ID,
		InvitedEmail: strptr("guest@example.com"),
		Name:         strptr("Guest"),
	})
	require.Equal(t, fiber.StatusBadRequest, statusOf(t, err))
}

func TestInviteIsOwnerOnly(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	sess := seedSession(t, db, owner.ID)

	collabUser := seedUser(t, db, "collab@example.com")
	require.NoError(t, db.Create(&models.Member{
		SessionID:        sess.ID,
		UserID:           &collabUser.ID,
		Role:             models.RoleCollaborator,
		InvitationStatus: models.InvitationAccepted,
	}).Error)

	_, err := Invite(collabUser.ID, CreateMemberInput{SessionID: sess.ID, Name: strptr("Kid")})
	require.Equal(t, fiber.StatusForbidden, statusOf(t, err))
}

func TestInviteAcceptRoundTrip(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	sess := seedSession(t, db, owner.ID)
	guest := seedUser(t, db, "guest@example.com")

	invited, err := Invite(owner.ID, CreateMemberInput{
		SessionID:    sess.ID,
		InvitedEmail: strptr("guest@example.com"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, invited.InviteToken)
	require.Equal(t, models.InvitationPending, invited.InvitationStatus)
	require.Equal(t, models.RoleCollaborator, invited.Role)

	accepted, err := AcceptInvite(invited.InviteToken, guest.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvitationAccepted, accepted.InvitationStatus)
	require.NotNil(t, accepted.UserID)
	require.Equal(t, guest.ID, *accepted.UserID)
	require.Nil(t, accepted.InviteToken)
	require.NotNil(t, accepted.AcceptedAt)
	require.False(t, accepted.IsPlaceholder)

	// Second accept with the same token must fail: the token is gone.
	_, err = AcceptInvite(invited.InviteToken, guest.ID)
	require.Equal(t, fiber.StatusNotFound, statusOf(t, err))
}

func TestAcceptMergesExistingMembership(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	sess := seedSession(t, db, owner.ID)
	guest := seedUser(t, db, "guest@example.com")

	existing := models.Member{
		SessionID:        sess.ID,
		UserID:           &guest.ID,
		Role:             models.RoleViewer,
		InvitationStatus: models.InvitationDeclined,
	}
	require.NoError(t, db.Create(&existing).Error)

	invited, err := Invite(owner.ID, CreateMemberInput{
		SessionID:    sess.ID,
		InvitedEmail: strptr("guest@example.com"),
	})
	require.NoError(t, err)

	merged, err := AcceptInvite(invited.InviteToken, guest.ID)
	require.NoError(t, err)
	require.Equal(t, existing.ID, merged.ID)
	require.Equal(t, models.InvitationAccepted, merged.InvitationStatus)

	// The invitation row must be gone; one membership row per user.
	var rows int64
	require.NoError(t, db.Model(&models.Member{}).Where("session_id = ?", sess.ID).Count(&rows).Error)
	require.EqualValues(t, 1, rows)
}

func TestDeclineIsIrreversible(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	sess := seedSession(t, db, owner.ID)
	guest := seedUser(t, db, "guest@example.com")

	invited, err := Invite(owner.ID, CreateMemberInput{
		SessionID:    sess.ID,
		InvitedEmail: strptr("guest@example.com"),
	})
	require.NoError(t, err)

	declined, err := DeclineInvite(invited.InviteToken)
	require.NoError(t, err)
	require.Equal(t, models.InvitationDeclined, declined.InvitationStatus)
	require.Nil(t, declined.InviteToken)

	_, err = AcceptInvite(invited.InviteToken, guest.ID)
	require.Equal(t, fiber.StatusNotFound, statusOf(t, err))
}

func TestRevokeOnlyPendingInvitations(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	sess := seedSession(t, db, owner.ID)
	guest := seedUser(t, db, "guest@example.com")

	invited, err := Invite(owner.ID, CreateMemberInput{
		SessionID:    sess.ID,
		InvitedEmail: strptr("guest@example.com"),
	})
	require.NoError(t, err)

	other, err := Invite(owner.ID, CreateMemberInput{
		SessionID:    sess.ID,
		InvitedEmail: strptr("other@example.com"),
	})
	require.NoError(t, err)

	accepted, err := AcceptInvite(invited.InviteToken, guest.ID)
	require.NoError(t, err)

	err = RevokeInvite(owner.ID, accepted.ID)
	require.Equal(t, fiber.StatusBadRequest, statusOf(t, err))

	require.NoError(t, RevokeInvite(owner.ID, other.ID))

	var gone models.Member
	err = db.First(&gone, "id = ?", other.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestChangeRoleOwnerGuard(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	sess := seedSession(t, db, owner.ID)

	collabUser := seedUser(t, db, "collab@example.com")
	collab := models.Member{
		SessionID:        sess.ID,
		UserID:           &collabUser.ID,
		Role:             models.RoleCollaborator,
		InvitationStatus: models.InvitationAccepted,
	}
	require.NoError(t, db.Create(&collab).Error)

	viewerUser := seedUser(t, db, "viewer@example.com")
	viewer := models.Member{
		SessionID:        sess.ID,
		UserID:           &viewerUser.ID,
		Role:             models.RoleViewer,
		InvitationStatus: models.InvitationAccepted,
	}
	require.NoError(t, db.Create(&viewer).Error)

	// Collaborators may shuffle COLLABORATOR/VIEWER.
	changed, err := ChangeRole(collabUser.ID, viewer.ID, models.RoleCollaborator)
	require.NoError(t, err)
	require.Equal(t, models.RoleCollaborator, changed.Role)

	// But only the owner may grant OWNER.
	_, err = ChangeRole(collabUser.ID, viewer.ID, models.RoleOwner)
	require.Equal(t, fiber.StatusForbidden, statusOf(t, err))

	promoted, err := ChangeRole(owner.ID, viewer.ID, models.RoleOwner)
	require.NoError(t, err)
	require.Equal(t, models.RoleOwner, promoted.Role)

	// And only the owner may revoke OWNER.
	_, err = ChangeRole(collabUser.ID, viewer.ID, models.RoleViewer)
	require.Equal(t, fiber.StatusForbidden, statusOf(t, err))
}

func TestPlaceholderNameDedupe(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	sess := seedSession(t, db, owner.ID)

	_, err := Invite(owner.ID, CreateMemberInput{SessionID: sess.ID, Name: strptr("Kid")})
	require.NoError(t, err)

	_, err = Invite(owner.ID, CreateMemberInput{SessionID: sess.ID, Name: strptr("Kid")})
	require.Equal(t, fiber.StatusBadRequest, statusOf(t, err))
}

func TestInviteByEmailBlockedOnlyByAcceptedMembership(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	sess := seedSession(t, db, owner.ID)
	guest := seedUser(t, db, "guest@example.com")

	// A declined row must not block a fresh invite for the same user.
	require.NoError(t, db.Create(&models.Member{
		SessionID:        sess.ID,
		UserID:           &guest.ID,
		Role:             models.RoleViewer,
		InvitationStatus: models.InvitationDeclined,
	}).Error)

	reinvite, err := Invite(owner.ID, CreateMemberInput{
		SessionID:    sess.ID,
		InvitedEmail: strptr("guest@example.com"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, reinvite.InviteToken)

	// An accepted membership does block it.
	accepted := seedUser(t, db, "settled@example.com")
	require.NoError(t, db.Create(&models.Member{
		SessionID:        sess.ID,
		UserID:           &accepted.ID,
		Role:             models.RoleCollaborator,
		InvitationStatus: models.InvitationAccepted,
	}).Error)

	_, err = Invite(owner.ID, CreateMemberInput{
		SessionID:    sess.ID,
		InvitedEmail: strptr("settled@example.com"),
	})
	require.Equal(t, fiber.StatusBadRequest, statusOf(t, err))
}

func TestPendingDuplicateEmailRejected(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	sess := seedSession(t, db, owner.ID)

	_, err := Invite(owner.ID, CreateMemberInput{SessionID: sess.ID, InvitedEmail: strptr("guest@example.com")})
	require.NoError(t, err)

	_, err = Invite(owner.ID, CreateMemberInput{SessionID: sess.ID, InvitedEmail: strptr("guest@example.com")})
	require.Equal(t, fiber.StatusBadRequest, statusOf(t, err))
}

func TestRemoveIsUnconditional(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	sess := seedSession(t, db, owner.ID)

	created, err := Invite(owner.ID, CreateMemberInput{SessionID: sess.ID, Name: strptr("Kid")})
	require.NoError(t, err)

	require.NoError(t, Remove(owner.ID, created.Member.ID))

	var gone models.Member
	err = db.First(&gone, "id = ?", created.Member.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
