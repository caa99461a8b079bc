package services

import (
	"log"

	"academy-dashboard/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityService appends to the audit trail. Rows are never updated or
// deleted.
type ActivityService struct {
	DB *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{DB: db}
}

// Record writes one log entry inside the caller's transaction. Use this when
// the entry must be atomic with the mutation it describes (award guards).
func (s *ActivityService) Record(tx *gorm.DB, participantID, action, entityType, entityID string, meta datatypes.JSONMap) error {
	entry := models.ActivityLog{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Metadata:      meta,
	}
	return tx.Create(&entry).Error
}

// Log is the best-effort variant: a failed append never fails the caller.
func (s *ActivityService) Log(participantID, action, entityType, entityID string, meta datatypes.JSONMap) {
	if err := s.Record(s.DB, participantID, action, entityType, entityID, meta); err != nil {
		log.Printf("⚠️ activity log failed (action=%s participant=%s): %v", action, participantID, err)
	}
}
