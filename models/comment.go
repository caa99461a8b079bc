package models

// Comment is a discussion entry on a submission. Authors may edit or delete
// their own; admins may delete any.
type Comment struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	SubmissionID string `gorm:"index;not null" json:"submission_id"`
	AuthorID     string `gorm:"index;not null" json:"author_id"`
	Body         string `gorm:"type:text;not null" json:"body"`

	Author *Participant `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Timestamps
}
