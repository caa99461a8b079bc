package models

import (
	"time"

	"gorm.io/gorm"
)

// Participant statuses (soft lifecycle — participants are never hard-deleted)
const (
	ParticipantActive   = "active"
	ParticipantInactive = "inactive"
)

// Participant roles
const (
	RoleParticipant = "participant"
	RoleMentor      = "mentor"
)

// Participant is a registered academy member. Identity is owned by the auth
// provider; ExternalUserID links our row to its session subject.
type Participant struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Email          string  `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName    string  `gorm:"not null" json:"display_name"`
	Handle         string  `gorm:"uniqueIndex;not null" json:"handle"` // URL-safe slug of the display name
	AvatarURL      *string `json:"avatar_url,omitempty"`

	Role    string `gorm:"type:varchar(16);default:'participant'" json:"role"`
	IsAdmin bool   `gorm:"default:false" json:"is_admin"`
	Team    string `gorm:"index" json:"team"`
	Stream  string `gorm:"index" json:"stream"` // e.g., "engineering", "product"

	Status      string     `gorm:"type:varchar(16);default:'active'" json:"status"`
	OnboardedAt *time.Time `json:"onboarded_at,omitempty"`

	Timestamps
}

func (p *Participant) IsMentor() bool {
	return p.Role == RoleMentor || p.IsAdmin
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
