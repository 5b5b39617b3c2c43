package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberRole string

const (
	RoleOwner        MemberRole = "OWNER"
	RoleCollaborator MemberRole = "COLLABORATOR"
	RoleViewer       MemberRole = "VIEWER"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationDeclined InvitationStatus = "DECLINED"
)

// Member: a participant record in a session, in exactly one of three shapes:
//   - linked:      UserID set, status ACCEPTED
//   - invited:     InvitedEmail + InviteToken set, status PENDING
//   - placeholder: Name set, IsPlaceholder true, status ACCEPTED
//
// InviteToken is never serialized; the invite flow returns it out of band,
// once, when the invitation is created.
type Member struct {
	ID               string  `gorm:"primaryKey;size:36" json:"id"`
	SessionID        string  `gorm:"size:36;index;not null" json:"sessionId"`
	Session          *Session `json:"session,omitempty"`
	UserID           *string `gorm:"size:36;index" json:"userId"`
	User             *User   `json:"user,omitempty"`
	Name             *string `gorm:"size:100" json:"name"`
	Role             MemberRole       `gorm:"size:20;not null" json:"role"`
	IsPlaceholder    bool             `gorm:"default:false" json:"isPlaceholder"`
	InvitationStatus InvitationStatus `gorm:"size:20;not null" json:"invitationStatus"`
	InvitedEmail     *string `gorm:"size:100" json:"invitedEmail"`
	InviteToken      *string `gorm:"size:36;uniqueIndex" json:"-"`
	InvitedAt        *time.Time `json:"invitedAt"`
	AcceptedAt       *time.Time `json:"acceptedAt"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
