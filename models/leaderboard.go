package models

import "time"

// LeaderboardEntry is the per-participant scoring aggregate, recomputed by
// the scheduled progression pass. Rank is dense (1 = top).
type LeaderboardEntry struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	ParticipantID string `gorm:"uniqueIndex;not null" json:"participant_id"`

	TotalPoints   int64 `gorm:"default:0" json:"total_points"`
	BonusPoints   int64 `gorm:"default:0" json:"bonus_points"` // peer review completions
	CurrentStreak int   `gorm:"default:0" json:"current_streak"`
	LongestStreak int   `gorm:"default:0" json:"longest_streak"`
	Rank          int   `gorm:"index;default:0" json:"rank"`

	LastSubmissionAt *time.Time `json:"last_submission_at,omitempty"`

	Participant *Participant `gorm:"foreignKey:ParticipantID" json:"participant,omitempty"`

	Timestamps
}
