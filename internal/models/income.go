package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Income: a planned recurring cash inflow. Day is the expected day of month
// (1-31), not validated against actual month lengths.
type Income struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`
	SessionID     string `gorm:"size:36;index;not null;uniqueIndex:uq_incomes_dedupe" json:"sessionId"`
	MemberID      string `gorm:"size:36;index;not null" json:"memberId"`
	Member        *Member `json:"member,omitempty"`
	BankAccountID string `gorm:"size:36;index;not null" json:"bankAccountId"`
	BankAccount   *BankAccount `json:"bankAccount,omitempty"`
	Label         string `gorm:"size:100;not null;uniqueIndex:uq_incomes_dedupe" json:"label"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null;uniqueIndex:uq_incomes_dedupe" json:"amount"`
	Day           int    `gorm:"not null;uniqueIndex:uq_incomes_dedupe" json:"day"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (i *Income) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
