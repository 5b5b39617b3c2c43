package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

type AuditLog struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	SessionID string `gorm:"size:36;index;not null" json:"sessionId"`

	UserID    string `gorm:"size:36;not null" json:"userId"`
	UserEmail string `gorm:"size:100" json:"userEmail"` // denormalized

	// e.g. "bank_account", "income", "expense", "budget", "transaction", "member"
	EntityType string `gorm:"size:50;index" json:"entityType"`
	EntityID   string `gorm:"size:36;index" json:"entityId"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
