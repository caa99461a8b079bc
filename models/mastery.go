package models

import "time"

// Clearance labels per mastery level.
const (
	ClearanceRecruit      = "RECRUIT"
	ClearanceFieldTrainee = "FIELD_TRAINEE"
	ClearanceFieldReady   = "FIELD_READY"
	ClearanceSpecialist   = "SPECIALIST"
)

// ParticipantMastery tracks gamified progression counters per participant
// (denormalized for the scheduled jobs). Level only ever moves up.
type ParticipantMastery struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	ParticipantID string `gorm:"uniqueIndex;not null" json:"participant_id"`

	DaysCompleted      int64 `gorm:"default:0" json:"days_completed"`
	ArtifactsSubmitted int64 `gorm:"default:0" json:"artifacts_submitted"`
	PeerAssistsGiven   int64 `gorm:"default:0" json:"peer_assists_given"`
	AITutorSessions    int64 `gorm:"default:0" json:"ai_tutor_sessions"`

	MasteryLevel int    `gorm:"default:1" json:"mastery_level"` // 1..4
	Clearance    string `gorm:"type:varchar(16);default:'RECRUIT'" json:"clearance"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}
