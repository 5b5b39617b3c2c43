package transaction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"foyer-backend/internal/access"
	"foyer-backend/internal/audit"
	"foyer-backend/internal/budget"
	"foyer-backend/internal/database"
	"foyer-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateTransactionInput struct {
	SessionID     string                  `json:"sessionId"`
	BankAccountID string                  `json:"bankAccountId"`
	MemberID      *string                 `json:"memberId"`
	Type          models.TransactionType  `json:"type"`
	Label         string                  `json:"label"`
	Amount        string                  `json:"amount"` // positive decimal string
	Date          string                  `json:"date"`   // ISO-8601
	Category      *models.ExpenseCategory `json:"category"`
	IsCleared     *bool                   `json:"isCleared"`
	Notes         *string                 `json:"notes"`
}

// NullableID distinguishes an absent JSON key from an explicit null, which a
// plain pointer cannot: "memberId": null detaches the member, a missing key
// leaves it untouched.
type NullableID struct {
	Set   bool
	Value *string
}

func (n *NullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

type UpdateTransactionInput struct {
	SessionID     *string                 `json:"sessionId"`
	BankAccountID *string                 `json:"bankAccountId"`
	MemberID      NullableID              `json:"memberId"`
	Type          *models.TransactionType `json:"type"`
	Label         *string                 `json:"label"`
	Amount        *string                 `json:"amount"`
	Date          *string                 `json:"date"`
	Category      *models.ExpenseCategory `json:"category"`
	IsCleared     *bool                   `json:"isCleared"`
	Notes         *string                 `json:"notes"`
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, fiber.NewError(fiber.StatusBadRequest, "amount must be a positive decimal string like \"42.50\"")
	}
	return d, nil
}

// parseDate accepts full RFC 3339 instants and bare "YYYY-MM-DD" dates.
// Bare dates are taken at midnight UTC; month bucketing re-interprets the
// instant in the configured timezone.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "date must be ISO-8601, e.g. \"2025-03-14\" or \"2025-03-14T09:30:00Z\"")
}

func validType(t models.TransactionType) error {
	if t != models.TransactionInflow && t != models.TransactionOutflow {
		return fiber.NewError(fiber.StatusBadRequest, "type must be INFLOW or OUTFLOW")
	}
	return nil
}

// ListBySession returns the session's transactions, newest first, with an
// optional inclusive [from, to] date window.
func ListBySession(requesterUserID, sessionID, from, to string) ([]models.Transaction, error) {
	if _, err := access.ResolveRole(database.DB, sessionID, requesterUserID); err != nil {
		return nil, err
	}

	q := database.DB.Where("session_id = ?", sessionID)
	if from != "" {
		t, err := parseDate(from)
		if err != nil {
			return nil, err
		}
		q = q.Where("date >= ?", t)
	}
	if to != "" {
		t, err := parseDate(to)
		if err != nil {
			return nil, err
		}
		q = q.Where("date <= ?", t)
	}

	var transactions []models.Transaction
	if err := q.
		Preload("Member").
		Preload("BankAccount").
		Order("date desc, created_at desc").
		Find(&transactions).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not list transactions")
	}
	return transactions, nil
}

// Create records a cash movement. The owning budget is always derived from
// the date's civil month; callers never choose it.
func Create(requesterUserID string, in CreateTransactionInput, loc *time.Location) (*models.Transaction, error) {
	if _, err := access.RequireManage(database.DB, in.SessionID, requesterUserID); err != nil {
		return nil, err
	}
	if in.Label == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "label is required")
	}
	if err := validType(in.Type); err != nil {
		return nil, err
	}
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	if in.Category != nil && !models.ValidExpenseCategory(*in.Category) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Unknown expense category")
	}
	if err := access.CheckCoherence(database.DB, in.SessionID, in.MemberID, &in.BankAccountID); err != nil {
		return nil, err
	}

	budgetID, err := budget.EnsureBudget(database.DB, in.SessionID, budget.MonthKey(date, loc))
	if err != nil {
		return nil, err
	}

	tr := models.Transaction{
		SessionID:     in.SessionID,
		BankAccountID: in.BankAccountID,
		MemberID:      in.MemberID,
		BudgetID:      budgetID,
		Type:          in.Type,
		Label:         in.Label,
		Amount:        amount,
		Date:          date,
		Category:      in.Category,
		Notes:         in.Notes,
	}
	if in.IsCleared != nil {
		tr.IsCleared = *in.IsCleared
	}
	if err := database.DB.Create(&tr).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not create transaction")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   tr.SessionID,
		UserID:      requesterUserID,
		EntityType:  "transaction",
		EntityID:    tr.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Transaction added: %s %s %s", tr.Type, tr.Amount.StringFixed(2), tr.Label),
	})

	return &tr, nil
}

func load(transactionID string) (*models.Transaction, error) {
	var tr models.Transaction
	if err := database.DB.First(&tr, "id = ?", transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Transaction not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load transaction")
	}
	return &tr, nil
}

// Update patches a transaction. Moving it to another session requires manage
// rights on both sides; a changed date or session re-derives the owning
// budget.
func Update(requesterUserID, transactionID string, in UpdateTransactionInput, loc *time.Location) (*models.Transaction, error) {
	tr, err := load(transactionID)
	if err != nil {
		return nil, err
	}
	if _, err := access.RequireManage(database.DB, tr.SessionID, requesterUserID); err != nil {
		return nil, err
	}

	sessionChanged := false
	if in.SessionID != nil && *in.SessionID != tr.SessionID {
		if _, err := access.RequireManage(database.DB, *in.SessionID, requesterUserID); err != nil {
			return nil, err
		}
		tr.SessionID = *in.SessionID
		sessionChanged = true
	}
	if in.BankAccountID != nil {
		tr.BankAccountID = *in.BankAccountID
	}
	if in.MemberID.Set {
		tr.MemberID = in.MemberID.Value
	}
	if sessionChanged || in.BankAccountID != nil || in.MemberID.Set {
		if err := access.CheckCoherence(database.DB, tr.SessionID, tr.MemberID, &tr.BankAccountID); err != nil {
			return nil, err
		}
	}

	if in.Type != nil {
		if err := validType(*in.Type); err != nil {
			return nil, err
		}
		tr.Type = *in.Type
	}
	if in.Label != nil {
		if *in.Label == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "label cannot be empty")
		}
		tr.Label = *in.Label
	}
	if in.Amount != nil {
		amount, err := parseAmount(*in.Amount)
		if err != nil {
			return nil, err
		}
		tr.Amount = amount
	}

	dateChanged := false
	if in.Date != nil {
		date, err := parseDate(*in.Date)
		if err != nil {
			return nil, err
		}
		tr.Date = date
		dateChanged = true
	}
	if dateChanged || sessionChanged {
		budgetID, err := budget.EnsureBudget(database.DB, tr.SessionID, budget.MonthKey(tr.Date, loc))
		if err != nil {
			return nil, err
		}
		tr.BudgetID = budgetID
	}

	if in.Category != nil {
		if !models.ValidExpenseCategory(*in.Category) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Unknown expense category")
		}
		tr.Category = in.Category
	}
	if in.IsCleared != nil {
		tr.IsCleared = *in.IsCleared
	}
	if in.Notes != nil {
		tr.Notes = in.Notes
	}

	if err := database.DB.Save(tr).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not update transaction")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   tr.SessionID,
		UserID:      requesterUserID,
		EntityType:  "transaction",
		EntityID:    tr.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Transaction updated: %s", tr.Label),
	})

	return tr, nil
}

// Remove deletes a transaction.
func Remove(requesterUserID, transactionID string) error {
	tr, err := load(transactionID)
	if err != nil {
		return err
	}
	if _, err := access.RequireManage(database.DB, tr.SessionID, requesterUserID); err != nil {
		return err
	}

	if err := database.DB.Delete(tr).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not delete transaction")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   tr.SessionID,
		UserID:      requesterUserID,
		EntityType:  "transaction",
		EntityID:    tr.ID,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("Transaction deleted: %s", tr.Label),
	})

	return nil
}
