package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is an append-only audit trail. Rows are created by nearly
// every mutating operation and never updated or deleted.
type ActivityLog struct {
	ID            string            `gorm:"primaryKey;type:uuid" json:"id"`
	ParticipantID string            `gorm:"index;not null" json:"participant_id"`
	Action        string            `gorm:"size:64;not null" json:"action"` // e.g. "submission_created", "achievement_awarded"
	EntityType    string            `gorm:"size:64" json:"entity_type"`
	EntityID      string            `gorm:"index" json:"entity_id"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
}
