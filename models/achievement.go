package models

import "time"

// Achievement kinds. Recognitions are behavioral badges granted by the
// scheduled scanner; achievements come from explicit progress milestones.
// Both share the same idempotent award tables.
const (
	KindAchievement = "achievement"
	KindRecognition = "recognition"
)

// Well-known achievement codes referenced from code.
const (
	AchievementWelcome       = "welcome"
	AchievementTeamPlayer    = "team_player"
	AchievementFirstArtifact = "first_artifact"
	RecognitionEarlyRiser    = "early_riser"
	RecognitionNightScholar  = "night_scholar"
	RecognitionMomentum      = "momentum"
	RecognitionTeamSupporter = "team_supporter"
)

// Achievement is a catalog entry (static config, seeded at boot).
type Achievement struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Code        string `gorm:"uniqueIndex;not null" json:"code"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Kind        string `gorm:"type:varchar(16);default:'achievement'" json:"kind"`
	Rarity      string `gorm:"type:varchar(16);default:'common'" json:"rarity"` // common, rare, epic, legendary
	IconURL     string `gorm:"type:text" json:"icon_url"`

	// Threshold keys map onto ParticipantMastery counters,
	// e.g. {"completed_reviews": 5}
	Threshold map[string]int64 `gorm:"serializer:json" json:"threshold"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ParticipantAchievement is the award join record. The unique
// (participant, achievement) index is the idempotency key.
type ParticipantAchievement struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	ParticipantID string    `gorm:"index:idx_participant_achievement,unique;not null" json:"participant_id"`
	AchievementID string    `gorm:"index:idx_participant_achievement,unique;not null" json:"achievement_id"`
	AwardedAt     time.Time `gorm:"autoCreateTime" json:"awarded_at"`

	Achievement *Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
}

// AchievementCatalog is the seed set, inserted if missing at boot.
var AchievementCatalog = []Achievement{
	{
		Code:        AchievementWelcome,
		Name:        "Welcome Aboard",
		Description: "Joined the academy",
		Kind:        KindAchievement,
		Rarity:      "common",
		Threshold:   map[string]int64{"event": 1}, // awarded on registration
	},
	{
		Code:        AchievementFirstArtifact,
		Name:        "First Artifact",
		Description: "Submitted your first assignment",
		Kind:        KindAchievement,
		Rarity:      "common",
		Threshold:   map[string]int64{"artifacts_submitted": 1},
	},
	{
		Code:        AchievementTeamPlayer,
		Name:        "Team Player",
		Description: "Completed 5 peer reviews",
		Kind:        KindAchievement,
		Rarity:      "rare",
		Threshold:   map[string]int64{"completed_reviews": 5},
	},
	{
		Code:        RecognitionEarlyRiser,
		Name:        "Early Riser",
		Description: "Submitted before 08:00",
		Kind:        KindRecognition,
		Rarity:      "common",
	},
	{
		Code:        RecognitionNightScholar,
		Name:        "Night Scholar",
		Description: "Submitted after 22:00",
		Kind:        KindRecognition,
		Rarity:      "common",
	},
	{
		Code:        RecognitionMomentum,
		Name:        "Momentum",
		Description: "Kept a 5-day submission streak",
		Kind:        KindRecognition,
		Rarity:      "rare",
	},
	{
		Code:        RecognitionTeamSupporter,
		Name:        "Team Supporter",
		Description: "Gave 3 peer assists",
		Kind:        KindRecognition,
		Rarity:      "rare",
	},
}
