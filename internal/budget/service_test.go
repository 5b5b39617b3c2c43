package budget

import (
	"fmt"
	"testing"
	"time"

	"foyer-backend/internal/database"
	"foyer-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
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

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var e *fiber.Error
	require.ErrorAs(t, err, &e)
	return e.Code
}

func TestMonthKeySameMonthSameBucket(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	jan5 := time.Date(2025, 1, 5, 12, 0, 0, 0, paris)
	jan31 := time.Date(2025, 1, 31, 23, 0, 0, 0, paris)
	require.Equal(t, "2025-01", MonthKey(jan5, paris))
	require.Equal(t, MonthKey(jan5, paris), MonthKey(jan31, paris))
}

func TestMonthKeyUsesCivilTimezoneNotUTC(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	// 2025-02-01T00:30:00Z is already February 1st 01:30 in Paris (UTC+1).
	instant := time.Date(2025, 2, 1, 0, 30, 0, 0, time.UTC)
	require.Equal(t, "2025-02", MonthKey(instant, paris))

	// 2025-01-31T23:30:00Z however is still January in UTC but already
	// February in Paris.
	boundary := time.Date(2025, 1, 31, 23, 30, 0, 0, time.UTC)
	require.Equal(t, "2025-02", MonthKey(boundary, paris))
	require.Equal(t, "2025-01", MonthKey(boundary, time.UTC))
}

func TestEnsureBudgetUpsertIsStable(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db)

	first, err := EnsureBudget(db, fx.session.ID, "2025-03")
	require.NoError(t, err)

	second, err := EnsureBudget(db, fx.session.ID, "2025-03")
	require.NoError(t, err)
	require.Equal(t, first, second)

	var created models.Budget
	require.NoError(t, db.First(&created, "id = ?", first).Error)
	require.True(t, created.OpeningBalance.IsZero())
}

func TestSummarizeScenario(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db)

	require.NoError(t, db.Create(&models.Budget{
		SessionID:      fx.session.ID,
		Month:          "2025-03",
		OpeningBalance: dec(t, "500.00"),
	}).Error)

	require.NoError(t, db.Create(&models.Income{
		SessionID:     fx.session.ID,
		MemberID:      fx.member.ID,
		BankAccountID: fx.account.ID,
		Label:         "Salary",
		Amount:        dec(t, "1000.00"),
		Day:           1,
	}).Error)
	require.NoError(t, db.Create(&models.Expense{
		SessionID:     fx.session.ID,
		MemberID:      fx.member.ID,
		BankAccountID: fx.account.ID,
		Label:         "Rent",
		Amount:        dec(t, "300.00"),
		Day:           5,
		Category:      models.CategoryHousing,
	}).Error)
	require.NoError(t, db.Create(&models.Expense{
		SessionID:     fx.session.ID,
		MemberID:      fx.member.ID,
		BankAccountID: fx.account.ID,
		Label:         "Old gym",
		Amount:        dec(t, "50.00"),
		Day:           10,
		Category:      models.CategoryLeisure,
		IsArchived:    true,
	}).Error)

	summary, err := Summarize(fx.owner.ID, fx.session.ID, "2025-03")
	require.NoError(t, err)
	require.Equal(t, "500.00", summary.OpeningBalance)
	require.Equal(t, "1000.00", summary.PlannedIncome)
	require.Equal(t, "300.00", summary.PlannedExpense)
	require.Equal(t, "700.00", summary.NetPlanned)
	require.Equal(t, "1200.00", summary.ProjectedEndBalance)
}

func TestSummarizeWithoutBudgetRowIsAllZero(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db)

	summary, err := Summarize(fx.owner.ID, fx.session.ID, "2030-01")
	require.NoError(t, err)
	require.Nil(t, summary.BudgetID)
	require.Equal(t, "0.00", summary.OpeningBalance)
	require.Equal(t, "0.00", summary.ActualInflow)
	require.Equal(t, "0.00", summary.EndingBalance)
	require.Equal(t, "0.00", summary.ClearedEndingBalance)
}

func TestSummarizeActualAndClearedTotals(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db)

	budgetID, err := EnsureBudget(db, fx.session.ID, "2025-03")
	require.NoError(t, err)

	mkTr := func(typ models.TransactionType, amount string, cleared bool) {
		require.NoError(t, db.Create(&models.Transaction{
			SessionID:     fx.session.ID,
			BankAccountID: fx.account.ID,
			BudgetID:      budgetID,
			Type:          typ,
			Label:         "t",
			Amount:        dec(t, amount),
			Date:          time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			IsCleared:     cleared,
		}).Error)
	}
	mkTr(models.TransactionInflow, "100.00", false)
	mkTr(models.TransactionInflow, "40.50", true)
	mkTr(models.TransactionOutflow, "25.25", true)
	mkTr(models.TransactionOutflow, "10.00", false)

	summary, err := Summarize(fx.owner.ID, fx.session.ID, "2025-03")
	require.NoError(t, err)
	require.Equal(t, "140.50", summary.ActualInflow)
	require.Equal(t, "35.25", summary.ActualOutflow)
	require.Equal(t, "105.25", summary.NetActual)
	require.Equal(t, "40.50", summary.ClearedInflow)
	require.Equal(t, "25.25", summary.ClearedOutflow)
	require.Equal(t, "15.25", summary.NetCleared)

	// Idempotent: a second read with no writes in between is identical.
	again, err := Summarize(fx.owner.ID, fx.session.ID, "2025-03")
	require.NoError(t, err)
	require.Equal(t, summary, again)

	// An uncleared inflow moves actualInflow only.
	mkTr(models.TransactionInflow, "100.00", false)
	after, err := Summarize(fx.owner.ID, fx.session.ID, "2025-03")
	require.NoError(t, err)
	require.Equal(t, "240.50", after.ActualInflow)
	require.Equal(t, summary.ClearedInflow, after.ClearedInflow)
}

func TestLockedBudgetOnlyAcceptsUnlock(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db)

	created, err := Create(fx.owner.ID, CreateBudgetInput{
		SessionID:      fx.session.ID,
		Month:          "2025-03",
		OpeningBalance: strptr("500.00"),
	})
	require.NoError(t, err)

	locked := true
	_, err = Update(fx.owner.ID, created.ID, UpdateBudgetInput{Locked: &locked})
	require.NoError(t, err)

	// Any other field while locked fails, even combined with the unlock.
	notes := "x"
	_, err = Update(fx.owner.ID, created.ID, UpdateBudgetInput{Notes: &notes})
	require.Equal(t, fiber.StatusForbidden, statusOf(t, err))

	unlocked := false
	_, err = Update(fx.owner.ID, created.ID, UpdateBudgetInput{Notes: &notes, Locked: &unlocked})
	require.Equal(t, fiber.StatusForbidden, statusOf(t, err))

	err = Remove(fx.owner.ID, created.ID)
	require.Equal(t, fiber.StatusForbidden, statusOf(t, err))

	// Exactly {locked: false} goes through and leaves other fields intact.
	after, err := Update(fx.owner.ID, created.ID, UpdateBudgetInput{Locked: &unlocked})
	require.NoError(t, err)
	require.False(t, after.Locked)
	require.Equal(t, "500.00", after.OpeningBalance.StringFixed(2))
	require.Nil(t, after.Notes)

	_, err = Update(fx.owner.ID, created.ID, UpdateBudgetInput{Notes: &notes})
	require.NoError(t, err)
	require.NoError(t, Remove(fx.owner.ID, created.ID))
}

func TestCreateRejectsBadMonthAndDuplicates(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db)

	_, err := Create(fx.owner.ID, CreateBudgetInput{SessionID: fx.session.ID, Month: "2025-13"})
	require.Equal(t, fiber.StatusBadRequest, statusOf(t, err))

	_, err = Create(fx.owner.ID, CreateBudgetInput{SessionID: fx.session.ID, Month: "march"})
	require.Equal(t, fiber.StatusBadRequest, statusOf(t, err))

	_, err = Create(fx.owner.ID, CreateBudgetInput{SessionID: fx.session.ID, Month: "2025-03"})
	require.NoError(t, err)

	_, err = Create(fx.owner.ID, CreateBudgetInput{SessionID: fx.session.ID, Month: "2025-03"})
	require.Equal(t, fiber.StatusBadRequest, statusOf(t, err))
}

func TestSummarizeCurrentMonthCreateIfMissing(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db)
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	withoutCreate, err := SummarizeCurrentMonth(fx.owner.ID, fx.session.ID, paris, false)
	require.NoError(t, err)
	require.Nil(t, withoutCreate.BudgetID)

	withCreate, err := SummarizeCurrentMonth(fx.owner.ID, fx.session.ID, paris, true)
	require.NoError(t, err)
	require.NotNil(t, withCreate.BudgetID)
	require.Equal(t, MonthKey(time.Now(), paris), withCreate.Month)
	require.Equal(t, "0.00", withCreate.OpeningBalance)
}

func TestSummarizeCurrentMonthViewerReadsWithoutCreating(t *testing.T) {
	db := setupDB(t)
	fx := seedFixture(t, db)
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	viewerUser := models.User{Email: "viewer@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&viewerUser).Error)
	require.NoError(t, db.Create(&models.Member{
		SessionID:        fx.session.ID,
		UserID:           &viewerUser.ID,
		Role:             models.RoleViewer,
		InvitationStatus: models.InvitationAccepted,
	}).Error)

	// A viewer asking for the upsert still gets the summary; no row appears.
	summary, err := SummarizeCurrentMonth(viewerUser.ID, fx.session.ID, paris, true)
	require.NoError(t, err)
	require.Nil(t, summary.BudgetID)

	var rows int64
	require.NoError(t, db.Model(&models.Budget{}).
		Where("session_id = ?", fx.session.ID).
		Count(&rows).Error)
	require.EqualValues(t, 0, rows)

	// The owner's upsert then creates the row, visible to the viewer too.
	_, err = SummarizeCurrentMonth(fx.owner.ID, fx.session.ID, paris, true)
	require.NoError(t, err)

	summary, err = SummarizeCurrentMonth(viewerUser.ID, fx.session.ID, paris, true)
	require.NoError(t, err)
	require.NotNil(t, summary.BudgetID)
}

func strptr(s string) *string { return &s }
