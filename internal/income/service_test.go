package income

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
	member  models.Member
	account models.BankAccount
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	owner := models.User{Email: "owner@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&owner).Error)
	sess := models.Session{OwnerID: owner.ID, Name: "Household", IsDefault: true}
	require.NoError(t, db.Create(&sess).Error)

	memberUser := models.User{Email: "partner@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&memberUser).Error)
	member := models.Member{
		SessionID:        sess.ID,
		UserID:           &memberUser.ID,
		Role:             models.RoleCollaborator,
		InvitationStatus: models.InvitationAccepted,
	}
	require.NoError(t, db.Create(&member).Error)

	account := models.BankAccount{SessionID: sess.ID, Label: "Joint", BankName: "Acme"}
	require.NoError(t, db.Create(&account).Error)

	return fixture{owner: owner, session: sess, member: member, account: account}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var e *fiber.Error
	require.ErrorAs(t, err, &e)
	return e.Code
}

func baseInput(fx fixture) CreateIncomeInput {
	return CreateIncomeInput{
		SessionID:     fx.session.ID,
		MemberID:      fx.member.ID,
		BankAccountID: fx.account.ID,
		Label:         "Salary",
		Amount:        "2000.00",
		Day:           1,
	}
}

func TestCreateAndDuplicateRejection(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db)

	created, err := Create(fx.owner.ID, baseInput(fx))
	require.NoError(t, err)
	require.Equal(t, "2000.00", created.Amount.StringFixed(2))

	_, err = Create(fx.owner.ID, baseInput(fx))
	require.Equal(t, fiber.StatusBadRequest, statusOf(t, err))

	// Same label and day with a different amount is a distinct income.
	raise := baseInput(fx)
	raise.Amount = "2100.00"
	_, err = Create(fx.owner.ID, raise)
	require.NoError(t, err)
}

func TestCreateRejectsNonAcceptedMember(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db)

	pending := models.Member{
		SessionID:        fx.session.ID,
		Role:             models.RoleCollaborator,
		InvitationStatus: models.InvitationPending,
	}
	require.NoError(t, db.Create(&pending).Error)

	in := baseInput(fx)
	in.MemberID = pending.ID
	_, err := Create(fx.owner.ID, in)
	require.Equal(t, fiber.StatusBadRequest, statusOf(t, err))
}

func TestUpdateAmountAndDay(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db)

	created, err := Create(fx.owner.ID, baseInput(fx))
	require.NoError(t, err)

	amount := "2500.50"
	day := 28
	updated, err := Update(fx.owner.ID, created.ID, UpdateIncomeInput{Amount: &amount, Day: &day})
	require.NoError(t, err)
	require.Equal(t, "2500.50", updated.Amount.StringFixed(2))
	require.Equal(t, 28, updated.Day)

	bad := "0"
	_, err = Update(fx.owner.ID, created.ID, UpdateIncomeInput{Amount: &bad})
	require.Equal(t, fiber.StatusBadRequest, statusOf(t, err))
}

func TestRemove(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db)

	created, err := Create(fx.owner.ID, baseInput(fx))
	require.NoError(t, err)
	require.NoError(t, Remove(fx.owner.ID, created.ID))

	var gone models.Income
	err = db.First(&gone, "id = ?", created.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
