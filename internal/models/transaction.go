package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionInflow  TransactionType = "INFLOW"
	TransactionOutflow TransactionType = "OUTFLOW"
)

// Transaction: an actual, dated cash movement. Amount is always positive,
// the sign is carried by Type. BudgetID is derived from Date's civil month
// at write time and is never client-settable.
type Transaction struct {
	ID            string  `gorm:"primaryKey;size:36" json:"id"`
	SessionID     string  `gorm:"size:36;index;not null" json:"sessionId"`
	BankAccountID string  `gorm:"size:36;index;not null" json:"bankAccountId"`
	BankAccount   *BankAccount `json:"bankAccount,omitempty"`
	MemberID      *string `gorm:"size:36;index" json:"memberId"`
	Member        *Member `json:"member,omitempty"`
	BudgetID      string  `gorm:"size:36;index;not null" json:"budgetId"`
	Budget        *Budget `json:"budget,omitempty"`
	Type          TransactionType `gorm:"size:10;not null" json:"type"`
	Label         string          `gorm:"size:100;not null" json:"label"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Date          time.Time        `gorm:"index;not null" json:"date"`
	Category      *ExpenseCategory `gorm:"size:20" json:"category"`
	IsCleared     bool    `gorm:"default:false" json:"isCleared"` // reconciled against a bank statement
	Notes         *string `gorm:"size:255" json:"notes"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
