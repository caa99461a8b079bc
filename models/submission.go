package models

import "time"

// Submission statuses
const (
	SubmissionSubmitted     = "submitted"
	SubmissionReviewed      = "reviewed"
	SubmissionNeedsRevision = "needs_revision"
	SubmissionApproved      = "approved"
)

// Submission is one participant's attempt at one assignment. Created on
// submit, mutated only by mentor review.
type Submission struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	ParticipantID string `gorm:"index:idx_participant_assignment,unique;not null" json:"participant_id"`
	AssignmentID  string `gorm:"index:idx_participant_assignment,unique;not null" json:"assignment_id"`

	ArtifactURL string `gorm:"type:text" json:"artifact_url"`
	Notes       string `gorm:"type:text" json:"notes"`

	Status         string     `gorm:"type:varchar(16);default:'submitted';check:status IN ('submitted','reviewed','needs_revision','approved')" json:"status"`
	Rating         *int       `json:"rating,omitempty"` // 1..5, set by mentor review
	MentorFeedback string     `gorm:"type:text" json:"mentor_feedback"`
	ReviewedBy     *string    `gorm:"index" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`

	Participant *Participant `gorm:"foreignKey:ParticipantID" json:"participant,omitempty"`
	Assignment  *Assignment  `gorm:"foreignKey:AssignmentID" json:"assignment,omitempty"`

	Timestamps
}
