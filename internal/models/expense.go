package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExpenseCategory string

const (
	CategoryHousing       ExpenseCategory = "HOUSING"
	CategoryUtilities     ExpenseCategory = "UTILITIES"
	CategoryGroceries     ExpenseCategory = "GROCERIES"
	CategoryTransport     ExpenseCategory = "TRANSPORT"
	CategoryHealth        ExpenseCategory = "HEALTH"
	CategoryLeisure       ExpenseCategory = "LEISURE"
	CategorySubscriptions ExpenseCategory = "SUBSCRIPTIONS"
	CategoryOther         ExpenseCategory = "OTHER"
)

func ValidExpenseCategory(c ExpenseCategory) bool {
	switch c {
	case CategoryHousing, CategoryUtilities, CategoryGroceries, CategoryTransport,
		CategoryHealth, CategoryLeisure, CategorySubscriptions, CategoryOther:
		return true
	}
	return false
}

// Expense: a planned recurring cash outflow. The unique index on
// (sessionId, label, day, amount) guards against accidental duplicate entry.
type Expense struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`
	SessionID     string `gorm:"size:36;index;not null;uniqueIndex:uq_expenses_dedupe" json:"sessionId"`
	MemberID      string `gorm:"size:36;index;not null" json:"memberId"`
	Member        *Member `json:"member,omitempty"`
	BankAccountID string `gorm:"size:36;index;not null" json:"bankAccountId"`
	BankAccount   *BankAccount `json:"bankAccount,omitempty"`
	Label         string `gorm:"size:100;not null;uniqueIndex:uq_expenses_dedupe" json:"label"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null;uniqueIndex:uq_expenses_dedupe" json:"amount"`
	Day           int             `gorm:"not null;uniqueIndex:uq_expenses_dedupe" json:"day"`
	Category      ExpenseCategory `gorm:"size:20;not null" json:"category"`
	IsArchived    bool   `gorm:"default:false" json:"isArchived"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
