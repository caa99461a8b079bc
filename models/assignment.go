package models

import "time"

// Assignment is a gradable unit of work tied to a program day. Static
// reference data — seeded by admins, read by everything else.
type Assignment struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Day         int    `gorm:"index;not null" json:"day"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Points      int    `gorm:"default:10" json:"points"`

	DueAt *time.Time `json:"due_at,omitempty"`

	Timestamps
}
