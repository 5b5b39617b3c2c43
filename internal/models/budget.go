package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Budget: the monthly envelope for a session, one row per (sessionId, month)
// with month as "YYYY-MM". While Locked is true the only permitted update is
// {locked: false} and deletion is forbidden.
type Budget struct {
	ID             string `gorm:"primaryKey;size:36" json:"id"`
	SessionID      string `gorm:"size:36;not null;uniqueIndex:uq_budgets_month" json:"sessionId"`
	Month          string `gorm:"size:7;not null;uniqueIndex:uq_budgets_month" json:"month"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"openingBalance"`
	Notes          *string `gorm:"size:255" json:"notes"`
	Locked         bool    `gorm:"default:false" json:"locked"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (b *Budget) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
