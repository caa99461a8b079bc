package models

import "time"

// IntelDrop is a scheduled content-release item, unlocked by day/time
// trigger. Unrelated to scoring.
type IntelDrop struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	Day     int    `gorm:"index;not null" json:"day"`
	Title   string `gorm:"not null" json:"title"`
	Body    string `gorm:"type:text" json:"body"`
	LinkURL string `gorm:"type:text" json:"link_url"`

	ReleaseAt  time.Time  `gorm:"index;not null" json:"release_at"`
	Released   bool       `gorm:"default:false" json:"released"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`

	Timestamps
}
