package models

import "time"

// Peer review statuses: pending is the only non-terminal state.
const (
	PeerReviewPending   = "pending"
	PeerReviewCompleted = "completed"
	PeerReviewSkipped   = "skipped"
)

// PeerReviewBonusPoints is credited to the reviewer's leaderboard aggregate
// on completion. Skips earn nothing.
const PeerReviewBonusPoints = 2

// PeerReview is a (submission, reviewer) assignment. A reviewer is never
// assigned to their own submission, and at most one row exists per pair.
type PeerReview struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	SubmissionID string `gorm:"index:idx_submission_reviewer,unique;not null" json:"submission_id"`
	ReviewerID   string `gorm:"index:idx_submission_reviewer,unique;not null" json:"reviewer_id"`

	Status      string     `gorm:"type:varchar(16);default:'pending';check:status IN ('pending','completed','skipped')" json:"status"`
	Rating      *int       `json:"rating,omitempty"` // 1..5, anonymous to the author
	Feedback    string     `gorm:"type:text" json:"feedback"`
	BonusPoints int        `gorm:"default:0" json:"bonus_points"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`

	Submission *Submission `gorm:"foreignKey:SubmissionID" json:"submission,omitempty"`

	Timestamps
}
