package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session: a shared budgeting workspace owned by one user. The owner has an
// implicit OWNER role and never appears as a Member row.
type Session struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	OwnerID   string `gorm:"size:36;index;not null" json:"ownerId"`
	Owner     *User  `json:"owner,omitempty"`
	Name      string `gorm:"size:100;not null" json:"name"`
	IsDefault bool   `gorm:"default:false" json:"isDefault"` // at most one per owner
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
