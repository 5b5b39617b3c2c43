package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BankAccount struct {
	ID             string `gorm:"primaryKey;size:36" json:"id"`
	SessionID      string `gorm:"size:36;index;not null" json:"sessionId"`
	Session        *Session `json:"session,omitempty"`
	Label          string `gorm:"size:100;not null" json:"label"`
	BankName       string `gorm:"size:100;not null" json:"bankName"`
	InitialBalance decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"initialBalance"`
	IsArchived     bool   `gorm:"default:false" json:"isArchived"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (b *BankAccount) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// BankAccountMember: pivot scoping per-account visibility to members. An
// account whose last association is removed is deleted (cascade rule).
type BankAccountMember struct {
	BankAccountID string `gorm:"primaryKey;size:36" json:"bankAccountId"`
	MemberID      string `gorm:"primaryKey;size:36" json:"memberId"`
	CreatedAt     time.Time `json:"createdAt"`
}
