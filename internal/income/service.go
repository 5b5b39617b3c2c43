package income

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

type CreateIncomeInput struct {
	SessionID     string `json:"sessionId"`
	MemberID      string `json:"memberId"`
	BankAccountID string `json:"bankAccountId"`
	Label         string `json:"label"`
	Amount        string `json:"amount"` // positive decimal string
	Day           int    `json:"day"`
}

type UpdateIncomeInput struct {
	MemberID      *string `json:"memberId"`
	BankAccountID *string `json:"bankAccountId"`
	Label         *string `json:"label"`
	Amount        *string `json:"amount"`
	Day           *int    `json:"day"`
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, fiber.NewError(fiber.StatusBadRequest, "amount must be a positive decimal string like \"1250.00\"")
	}
	return d, nil
}

func validDay(day int) error {
	if day < 1 || day > 31 {
		return fiber.NewError(fiber.StatusBadRequest, "day must be between 1 and 31")
	}
	return nil
}

// ListBySession returns the session's planned incomes with their member and
// account, ordered by day of month.
func ListBySession(requesterUserID, sessionID string) ([]models.Income, error) {
	if _, err := access.ResolveRole(database.DB, sessionID, requesterUserID); err != nil {
		return nil, err
	}

	var incomes []models.Income
	if err := database.DB.
		Where("session_id = ?", sessionID).
		Preload("Member").
		Preload("BankAccount").
		Order("day asc, label asc").
		Find(&incomes).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not list incomes")
	}
	return incomes, nil
}

// Create records a planned income. The member and account must belong to the
// same session; an identical (label, amount, day) row is rejected.
func Create(requesterUserID string, in CreateIncomeInput) (*models.Income, error) {
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
	if err := access.CheckCoherence(database.DB, in.SessionID, &in.MemberID, &in.BankAccountID); err != nil {
		return nil, err
	}

	income := models.Income{
		SessionID:     in.SessionID,
		MemberID:      in.MemberID,
		BankAccountID: in.BankAccountID,
		Label:         in.Label,
		Amount:        amount,
		Day:           in.Day,
	}
	if err := database.DB.Create(&income).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "An identical income already exists in this session")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not create income")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   income.SessionID,
		UserID:      requesterUserID,
		EntityType:  "income",
		EntityID:    income.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Income added: %s (%s)", income.Label, income.Amount.StringFixed(2)),
	})

	return &income, nil
}

func load(incomeID string) (*models.Income, error) {
	var income models.Income
	if err := database.DB.First(&income, "id = ?", incomeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Income not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load income")
	}
	return &income, nil
}

// Update patches a planned income. When the member or account changes the
// cross-session coherence check runs again.
func Update(requesterUserID, incomeID string, in UpdateIncomeInput) (*models.Income, error) {
	income, err := load(incomeID)
	if err != nil {
		return nil, err
	}
	if _, err := access.RequireManage(database.DB, income.SessionID, requesterUserID); err != nil {
		return nil, err
	}

	if in.MemberID != nil {
		income.MemberID = *in.MemberID
	}
	if in.BankAccountID != nil {
		income.BankAccountID = *in.BankAccountID
	}
	if in.MemberID != nil || in.BankAccountID != nil {
		if err := access.CheckCoherence(database.DB, income.SessionID, &income.MemberID, &income.BankAccountID); err != nil {
			return nil, err
		}
	}
	if in.Label != nil {
		if *in.Label == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "label cannot be empty")
		}
		income.Label = *in.Label
	}
	if in.Amount != nil {
		amount, err := parseAmount(*in.Amount)
		if err != nil {
			return nil, err
		}
		income.Amount = amount
	}
	if in.Day != nil {
		if err := validDay(*in.Day); err != nil {
			return nil, err
		}
		income.Day = *in.Day
	}

	if err := database.DB.Save(income).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "An identical income already exists in this session")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not update income")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   income.SessionID,
		UserID:      requesterUserID,
		EntityType:  "income",
		EntityID:    income.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Income updated: %s", income.Label),
	})

	return income, nil
}

// Remove deletes a planned income.
func Remove(requesterUserID, incomeID string) error {
	income, err := load(incomeID)
	if err != nil {
		return err
	}
	if _, err := access.RequireManage(database.DB, income.SessionID, requesterUserID); err != nil {
		return err
	}

	if err := database.DB.Delete(income).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not delete income")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   income.SessionID,
		UserID:      requesterUserID,
		EntityType:  "income",
		EntityID:    income.ID,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("Income deleted: %s", income.Label),
	})

	return nil
}
