package budget

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"foyer-backend/internal/access"
	"foyer-backend/internal/audit"
	"foyer-backend/internal/database"
	"foyer-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type CreateBudgetInput struct {
	SessionID      string  `json:"sessionId"`
	Month          string  `json:"month"` // "YYYY-MM"
	OpeningBalance *string `json:"openingBalance"`
	Notes          *string `json:"notes"`
}

type UpdateBudgetInput struct {
	OpeningBalance *string `json:"openingBalance"`
	Notes          *string `json:"notes"`
	Locked         *bool   `json:"locked"`
}

// Summary is the monthly ledger view. Every monetary field is a
// decimal-preserving string with exactly two fractional digits.
type Summary struct {
	SessionID string  `json:"sessionId"`
	Month     string  `json:"month"`
	BudgetID  *string `json:"budgetId"`
	Locked    bool    `json:"locked"`
	Notes     *string `json:"notes"`

	OpeningBalance      string `json:"openingBalance"`
	PlannedIncome       string `json:"plannedIncome"`
	PlannedExpense      string `json:"plannedExpense"`
	NetPlanned          string `json:"netPlanned"`
	ProjectedEndBalance string `json:"projectedEndBalance"`

	ActualInflow  string `json:"actualInflow"`
	ActualOutflow string `json:"actualOutflow"`
	NetActual     string `json:"netActual"`
	EndingBalance string `json:"endingBalance"`

	ClearedInflow        string `json:"clearedInflow"`
	ClearedOutflow       string `json:"clearedOutflow"`
	NetCleared           string `json:"netCleared"`
	ClearedEndingBalance string `json:"clearedEndingBalance"`
}

func parseBalance(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fiber.NewError(fiber.StatusBadRequest, "openingBalance must be a decimal string like \"500.00\"")
	}
	return d, nil
}

// ListBySession returns the session's budgets, newest month first.
func ListBySession(requesterUserID, sessionID string) ([]models.Budget, error) {
	if _, err := access.ResolveRole(database.DB, sessionID, requesterUserID); err != nil {
		return nil, err
	}

	var budgets []models.Budget
	if err := database.DB.
		Where("session_id = ?", sessionID).
		Order("month desc").
		Find(&budgets).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not list budgets")
	}
	return budgets, nil
}

// Create opens a budget for a month that does not have one yet.
func Create(requesterUserID string, in CreateBudgetInput) (*models.Budget, error) {
	if _, err := access.RequireManage(database.DB, in.SessionID, requesterUserID); err != nil {
		return nil, err
	}
	if !monthPattern.MatchString(in.Month) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "month must be formatted as \"YYYY-MM\"")
	}

	balance := decimal.Zero
	if in.OpeningBalance != nil {
		var err error
		if balance, err = parseBalance(*in.OpeningBalance); err != nil {
			return nil, err
		}
	}

	budget := models.Budget{
		SessionID:      in.SessionID,
		Month:          in.Month,
		OpeningBalance: balance,
		Notes:          in.Notes,
	}
	if err := database.DB.Create(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "A budget already exists for this month")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not create budget")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   budget.SessionID,
		UserID:      requesterUserID,
		EntityType:  "budget",
		EntityID:    budget.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Budget opened for %s", budget.Month),
	})

	return &budget, nil
}

func load(budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := database.DB.First(&budget, "id = ?", budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Budget not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load budget")
	}
	return &budget, nil
}

// Update patches a budget. While the budget is locked the only payload
// accepted is exactly {locked: false}; anything else fails Forbidden.
func Update(requesterUserID, budgetID string, in UpdateBudgetInput) (*models.Budget, error) {
	budget, err := load(budgetID)
	if err != nil {
		return nil, err
	}
	if _, err := access.RequireManage(database.DB, budget.SessionID, requesterUserID); err != nil {
		return nil, err
	}

	if budget.Locked {
		unlockOnly := in.Locked != nil && !*in.Locked &&
			in.OpeningBalance == nil && in.Notes == nil
		if !unlockOnly {
			return nil, fiber.NewError(fiber.StatusForbidden, "This budget is locked; unlock it first")
		}
	}

	if in.OpeningBalance != nil {
		balance, err := parseBalance(*in.OpeningBalance)
		if err != nil {
			return nil, err
		}
		budget.OpeningBalance = balance
	}
	if in.Notes != nil {
		budget.Notes = in.Notes
	}
	if in.Locked != nil {
		budget.Locked = *in.Locked
	}

	if err := database.DB.Save(budget).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not update budget")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   budget.SessionID,
		UserID:      requesterUserID,
		EntityType:  "budget",
		EntityID:    budget.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Budget updated for %s", budget.Month),
	})

	return budget, nil
}

// Remove deletes a budget. Forbidden while the budget is locked.
func Remove(requesterUserID, budgetID string) error {
	budget, err := load(budgetID)
	if err != nil {
		return err
	}
	if _, err := access.RequireManage(database.DB, budget.SessionID, requesterUserID); err != nil {
		return err
	}
	if budget.Locked {
		return fiber.NewError(fiber.StatusForbidden, "This budget is locked; unlock it first")
	}

	if err := database.DB.Delete(budget).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not delete budget")
	}

	_ = audit.WriteLog(audit.LogOptions{
		SessionID:   budget.SessionID,
		UserID:      requesterUserID,
		EntityType:  "budget",
		EntityID:    budget.ID,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("Budget deleted for %s", budget.Month),
	})

	return nil
}

// Summarize computes the monthly ledger view. A missing budget row is not an
// error: opening balance and all actual totals read as zero. Sums are folded
// in Go over decimal values so no binary floating point ever touches money.
func Summarize(requesterUserID, sessionID, month string) (*Summary, error) {
	if _, err := access.ResolveRole(database.DB, sessionID, requesterUserID); err != nil {
		return nil, err
	}
	if !monthPattern.MatchString(month) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "month must be formatted as \"YYYY-MM\"")
	}

	summary := Summary{SessionID: sessionID, Month: month}
	opening := decimal.Zero

	var budget models.Budget
	err := database.DB.Where("session_id = ? AND month = ?", sessionID, month).First(&budget).Error
	hasBudget := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load budget")
	}
	if hasBudget {
		opening = budget.OpeningBalance
		summary.BudgetID = &budget.ID
		summary.Locked = budget.Locked
		summary.Notes = budget.Notes
	}

	var incomes []models.Income
	if err := database.DB.Where("session_id = ?", sessionID).Find(&incomes).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load incomes")
	}
	plannedIncome := decimal.Zero
	for _, inc := range incomes {
		plannedIncome = plannedIncome.Add(inc.Amount)
	}

	var expenses []models.Expense
	if err := database.DB.
		Where("session_id = ? AND is_archived = ?", sessionID, false).
		Find(&expenses).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load expenses")
	}
	plannedExpense := decimal.Zero
	for _, exp := range expenses {
		plannedExpense = plannedExpense.Add(exp.Amount)
	}

	actualInflow, actualOutflow := decimal.Zero, decimal.Zero
	clearedInflow, clearedOutflow := decimal.Zero, decimal.Zero
	if hasBudget {
		var transactions []models.Transaction
		if err := database.DB.Where("budget_id = ?", budget.ID).Find(&transactions).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load transactions")
		}
		for _, tr := range transactions {
			switch tr.Type {
			case models.TransactionInflow:
				actualInflow = actualInflow.Add(tr.Amount)
				if tr.IsCleared {
					clearedInflow = clearedInflow.Add(tr.Amount)
				}
			case models.TransactionOutflow:
				actualOutflow = actualOutflow.Add(tr.Amount)
				if tr.IsCleared {
					clearedOutflow = clearedOutflow.Add(tr.Amount)
				}
			}
		}
	}

	netPlanned := plannedIncome.Sub(plannedExpense)
	netActual := actualInflow.Sub(actualOutflow)
	netCleared := clearedInflow.Sub(clearedOutflow)

	summary.OpeningBalance = opening.StringFixed(2)
	summary.PlannedIncome = plannedIncome.StringFixed(2)
	summary.PlannedExpense = plannedExpense.StringFixed(2)
	summary.NetPlanned = netPlanned.StringFixed(2)
	summary.ProjectedEndBalance = opening.Add(netPlanned).StringFixed(2)
	summary.ActualInflow = actualInflow.StringFixed(2)
	summary.ActualOutflow = actualOutflow.StringFixed(2)
	summary.NetActual = netActual.StringFixed(2)
	summary.EndingBalance = opening.Add(netActual).StringFixed(2)
	summary.ClearedInflow = clearedInflow.StringFixed(2)
	summary.ClearedOutflow = clearedOutflow.StringFixed(2)
	summary.NetCleared = netCleared.StringFixed(2)
	summary.ClearedEndingBalance = opening.Add(netCleared).StringFixed(2)

	return &summary, nil
}

// SummarizeCurrentMonth resolves "now" in the configured civil timezone and
// delegates to Summarize. With createIfMissing the month's budget row is
// upserted first so the summary carries a budgetId. The upsert is a mutation
// and so skipped for viewers, but the read itself stays open to them: a
// viewer client that always sends createIfMissing still gets its summary.
func SummarizeCurrentMonth(requesterUserID, sessionID string, loc *time.Location, createIfMissing bool) (*Summary, error) {
	month := MonthKey(time.Now(), loc)
	if createIfMissing {
		role, err := access.ResolveRole(database.DB, sessionID, requesterUserID)
		if err != nil {
			return nil, err
		}
		if role != models.RoleViewer {
			if _, err := EnsureBudget(database.DB, sessionID, month); err != nil {
				return nil, err
			}
		}
	}
	return Summarize(requesterUserID, sessionID, month)
}
