package expense

import (
	"errors"
	"fmt"

	"foyer-backend/internal/access"
	"foyer-backend/internal/audit"
	"foyer-backend/internal/database"
	"foyer-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateExpenseInput struct {
	SessionID     string                 `json:"sessionId"`
	MemberID      string                 `json:"memberId"`
	BankAccountID string                 `json:"bankAccountId"`
	Label         string                 `json:"label"`
	Amount        string                 `json:"amount"` // positive decimal string
	Day           int                    `json:"day"`
	Category      models.ExpenseCategory `json:"category"`
}

type UpdateExpenseInput struct {
	MemberID      *string                 `json:"memberId"`
	BankAccountID *string                 `json:"bankAccountId"`
	Label         *string                 `json:"label"`
	Amount        *string                 `json:"amount"`
	Day           *int                    `json:"day"`
	Category      *models.ExpenseCategory `json:"category"`
	IsArchived    *bool                   `json:"isArchived"`
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, fiber.NewError(fiber.StatusBadRequest, "amount must be a positive decimal string like \"89.90\"")
	}
	return d, nil
}

func validDay(day int) error {
	if day < 1 || day > 31 {
		return fiber.NewError(fiber.StatusBadRequest, "day must be between 1 and 31")
	}
	return nil
}

// ListBySession returns the session's planned expenses, archived ones
// included, ordered by day of month.
func ListBySession(requesterUserID, sessionID string) ([]models.Expense, error) {
	if _, err := access.ResolveRole(database.DB, sessionID, requesterUserID); err != nil {
		return nil, err
	}

	var expenses []models.Expense
	if err := database.DB.
		Where("session_id = ?", sessionID).
		Preload("Member").
		Preload("BankAccount").
		Order("day asc, label asc").
		Find(&expenses).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not list expenses")
	}
	return expenses, nil
}

// Create records a planned expense. The member and account must belong to
// the same session; an identical (label, amount, day) row is rejected.
func Create(requesterUserID string, in CreateExpenseInput) (*models.Expense, error) {
	if _, err := access.RequireManage(database.DB, in.SessionID, requesterUserID); err != nil {
		return nil, err
	}
	if in.Label == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "label is required")
	}
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	if err := validDay(in.Day); err != nil {
		return nil, err
	}
	if !models.ValidExpenseCategory(in.Category) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Unknown expense category")
	}
	if err := access.CheckCoherence(database.DB, in.SessionID, &in.MemberID, &in.BankAccountID); err != nil {
		return nil, err
	}

	expense := models.Expense{
		SessionID:     in.SessionID,
		MemberID:      in.MemberID,
		BankAccountID: in.BankAccountID,
		Label:         in.Label,
		Amount:        amount,
		Day:           in.Day,
		Category:      in.Category,
	}
	if err := database.DB.Create(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "An identical expense already exists in this session")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not create expense")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   expense.SessionID,
		UserID:      requesterUserID,
		EntityType:  "expense",
		EntityID:    expense.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Expense added: %s (%s)", expense.Label, expense.Amount.StringFixed(2)),
	})

	return &expense, nil
}

func load(expenseID string) (*models.Expense, error) {
	var expense models.Expense
	if err := database.DB.First(&expense, "id = ?", expenseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Expense not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load expense")
	}
	return &expense, nil
}

// Update patches a planned expense. When the member or account changes the
// cross-session coherence check runs again. Archiving keeps the row for
// history but drops it from future budget projections.
func Update(requesterUserID, expenseID string, in UpdateExpenseInput) (*models.Expense, error) {
	expense, err := load(expenseID)
	if err != nil {
		return nil, err
	}
	if _, err := access.RequireManage(database.DB, expense.SessionID, requesterUserID); err != nil {
		return nil, err
	}

	if in.MemberID != nil {
		expense.MemberID = *in.MemberID
	}
	if in.BankAccountID != nil {
		expense.BankAccountID = *in.BankAccountID
	}
	if in.MemberID != nil || in.BankAccountID != nil {
		if err := access.CheckCoherence(database.DB, expense.SessionID, &expense.MemberID, &expense.BankAccountID); err != nil {
			return nil, err
		}
	}
	if in.Label != nil {
		if *in.Label == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "label cannot be empty")
		}
		expense.Label = *in.Label
	}
	if in.Amount != nil {
		amount, err := parseAmount(*in.Amount)
		if err != nil {
			return nil, err
		}
		expense.Amount = amount
	}
	if in.Day != nil {
		if err := validDay(*in.Day); err != nil {
			return nil, err
		}
		expense.Day = *in.Day
	}
	if in.Category != nil {
		if !models.ValidExpenseCategory(*in.Category) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Unknown expense category")
		}
		expense.Category = *in.Category
	}
	if in.IsArchived != nil {
		expense.IsArchived = *in.IsArchived
	}

	if err := database.DB.Save(expense).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "An identical expense already exists in this session")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not update expense")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   expense.SessionID,
		UserID:      requesterUserID,
		EntityType:  "expense",
		EntityID:    expense.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Expense updated: %s", expense.Label),
	})

	return expense, nil
}

// Remove deletes a planned expense.
func Remove(requesterUserID, expenseID string) error {
	expense, err := load(expenseID)
	if err != nil {
		return err
	}
	if _, err := access.RequireManage(database.DB, expense.SessionID, requesterUserID); err != nil {
		return err
	}

	if err := database.DB.Delete(expense).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not delete expense")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   expense.SessionID,
		UserID:      requesterUserID,
		EntityType:  "expense",
		EntityID:    expense.ID,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("Expense deleted: %s", expense.Label),
	})

	return nil
}
