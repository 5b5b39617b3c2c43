package bank

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

type fixture struct {
	owner   models.User
	session models.Session
	members []models.Member
}

func seedFixture(t *testing.T, db *gorm.DB, memberCount int) fixture {
	t.Helper()
	owner := models.User{Email: "owner@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&owner).Error)
	sess := models.Session{OwnerID: owner.ID, Name: "Household", IsDefault: true}
	require.NoError(t, db.Create(&sess).Error)

	fx := fixture{owner: owner, session: sess}
	for i := 0; i < memberCount; i++ {
		user := models.User{Email: fmt.Sprintf("m%d@example.com", i), PasswordHash: "x"}
		require.NoError(t, db.Create(&user).Error)
		member := models.Member{
			SessionID:        sess.ID,
			UserID:           &user.ID,
			Role:             models.RoleCollaborator,
			InvitationStatus: models.InvitationAccepted,
		}
		require.NoError(t, db.Create(&member).Error)
		fx.members = append(fx.members, member)
	}
	return fx
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var e *fiber.Error
	require.ErrorAs(t, err, &e)
	return e.Code
}

func strptr(s string) *string { return &s }

func TestCreateWithMembers(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db, 2)

	account, err := Create(fx.owner.ID, CreateBankInput{
		SessionID:      fx.session.ID,
		Label:          "Joint",
		BankName:       "Acme",
		InitialBalance: strptr("1500.00"),
		MemberIDs:      []string{fx.members[0].ID, fx.members[1].ID},
	})
	require.NoError(t, err)
	require.Len(t, account.Members, 2)
	require.Equal(t, "1500.00", account.InitialBalance.StringFixed(2))
}

func TestCreateRejectsForeignMembers(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db, 1)

	other := models.Session{OwnerID: fx.owner.ID, Name: "Other"}
	require.NoError(t, db.Create(&other).Error)
	foreignUser := models.User{Email: "foreign@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&foreignUser).Error)
	foreign := models.Member{
		SessionID:        other.ID,
		UserID:           &foreignUser.ID,
		Role:             models.RoleCollaborator,
		InvitationStatus: models.InvitationAccepted,
	}
	require.NoError(t, db.Create(&foreign).Error)

	_, err := Create(fx.owner.ID, CreateBankInput{
		SessionID: fx.session.ID,
		Label:     "Joint",
		BankName:  "Acme",
		MemberIDs: []string{foreign.ID},
	})
	require.Equal(t, fiber.StatusBadRequest, statusOf(t, err))
}

func TestRemoveMemberKeepsAccountWhileOthersRemain(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db, 2)

	account, err := Create(fx.owner.ID, CreateBankInput{
		SessionID: fx.session.ID,
		Label:     "Joint",
		BankName:  "Acme",
		MemberIDs: []string{fx.members[0].ID, fx.members[1].ID},
	})
	require.NoError(t, err)

	result, err := RemoveMember(fx.owner.ID, account.ID, fx.members[0].ID)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.False(t, result.AccountDeleted)

	var still models.BankAccount
	require.NoError(t, db.First(&still, "id = ?", account.ID).Error)
}

func TestRemoveLastMemberDeletesAccount(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db, 1)

	account, err := Create(fx.owner.ID, CreateBankInput{
		SessionID: fx.session.ID,
		Label:     "Joint",
		BankName:  "Acme",
		MemberIDs: []string{fx.members[0].ID},
	})
	require.NoError(t, err)

	result, err := RemoveMember(fx.owner.ID, account.ID, fx.members[0].ID)
	require.NoError(t, err)
	require.True(t, result.AccountDeleted)

	var gone models.BankAccount
	err = db.First(&gone, "id = ?", account.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAddMembersIgnoresDuplicates(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db, 2)

	account, err := Create(fx.owner.ID, CreateBankInput{
		SessionID: fx.session.ID,
		Label:     "Joint",
		BankName:  "Acme",
		MemberIDs: []string{fx.members[0].ID},
	})
	require.NoError(t, err)

	err = AddMembers(fx.owner.ID, account.ID, AddMembersInput{
		MemberIDs: []string{fx.members[0].ID, fx.members[1].ID},
	})
	require.NoError(t, err)

	members, err := accountMembers(account.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
}

func TestViewerCannotManageAccounts(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db, 1)

	viewerUser := models.User{Email: "viewer@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&viewerUser).Error)
	require.NoError(t, db.Create(&models.Member{
		SessionID:        fx.session.ID,
		UserID:           &viewerUser.ID,
		Role:             models.RoleViewer,
		InvitationStatus: models.InvitationAccepted,
	}).Error)

	_, err := Create(viewerUser.ID, CreateBankInput{
		SessionID: fx.session.ID,
		Label:     "Joint",
		BankName:  "Acme",
	})
	require.Equal(t, fiber.StatusForbidden, statusOf(t, err))

	// Reads stay open to viewers.
	_, err = ListBySession(viewerUser.ID, fx.session.ID)
	require.NoError(t, err)
}
