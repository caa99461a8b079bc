package services

import (
	"context"
	"errors"
	"log"
	"time"

	"academy-dashboard/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MasterySnapshot is the counter view the evaluator works on.
type MasterySnapshot struct {
	DaysCompleted      int64
	ArtifactsSubmitted int64
	PeerAssistsGiven   int64
	AITutorSessions    int64
	MasteryLevel       int
}

// masteryTier predicates are conjunctions of "counter ≥ constant" checks.
type masteryTier struct {
	Level        int
	Clearance    string
	MinDays      int64
	MinArtifacts int64
	MinAssists   int64
	MinTutor     int64
}

// Evaluated from the highest tier downward so a participant qualifying for
// several tiers in one pass jumps straight to the highest satisfied one.
var masteryTiers = []masteryTier{
	{Level: 4, Clearance: models.ClearanceSpecialist, MinDays: 12, MinArtifacts: 10, MinAssists: 5, MinTutor: 5},
	{Level: 3, Clearance: models.ClearanceFieldReady, MinDays: 7, MinArtifacts: 5, MinAssists: 2},
	{Level: 2, Clearance: models.ClearanceFieldTrainee, MinDays: 3, MinTutor: 1},
}

func (t masteryTier) satisfiedBy(s MasterySnapshot) bool {
	return s.DaysCompleted >= t.MinDays &&
		s.ArtifactsSubmitted >= t.MinArtifacts &&
		s.PeerAssistsGiven >= t.MinAssists &&
		s.AITutorSessions >= t.MinTutor
}

// EvaluateMastery returns the next (level, clearance) if a threshold is newly
// satisfied. Levels never decrease; absence of qualification is a normal
// no-op result (ok=false).
func EvaluateMastery(s MasterySnapshot) (int, string, bool) {
	for _, tier := range masteryTiers {
		if tier.Level <= s.MasteryLevel {
			break
		}
		if tier.satisfiedBy(s) {
			return tier.Level, tier.Clearance, true
		}
	}
	return s.MasteryLevel, ClearanceForLevel(s.MasteryLevel), false
}

func ClearanceForLevel(level int) string {
	switch level {
	case 2:
		return models.ClearanceFieldTrainee
	case 3:
		return models.ClearanceFieldReady
	case 4:
		return models.ClearanceSpecialist
	default:
		return models.ClearanceRecruit
	}
}

type MasteryService struct {
	DB       *gorm.DB
	Notifier Notifier
	Activity *ActivityService
}

func NewMasteryService(db *gorm.DB, notifier Notifier) *MasteryService {
	return &MasteryService{DB: db, Notifier: notifier, Activity: NewActivityService(db)}
}

// EnsureMasteryRecord creates the counter row if missing (idempotent).
func (s *MasteryService) EnsureMasteryRecord(tx *gorm.DB, participantID string) (*models.ParticipantMastery, error) {
	var m models.ParticipantMastery
	err := tx.Where("participant_id = ?", participantID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		m = models.ParticipantMastery{
			ID:            uuid.NewString(),
			ParticipantID: participantID,
			MasteryLevel:  1,
			Clearance:     models.ClearanceRecruit,
		}
		if err := tx.Create(&m).Error; err != nil {
			return nil, err
		}
		return &m, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// IncrementCounter bumps one mastery counter inside the caller's transaction.
// column must be one of the counter column names.
func (s *MasteryService) IncrementCounter(tx *gorm.DB, participantID, column string) error {
	if _, err := s.EnsureMasteryRecord(tx, participantID); err != nil {
		return err
	}
	return tx.Model(&models.ParticipantMastery{}).
		Where("participant_id = ?", participantID).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

// RunMasteryUpdate is the scheduled progression pass: refresh derived
// counters from submissions, evaluate thresholds, promote, notify.
// Re-running is harmless — promotion only ever moves up.
func (s *MasteryService) RunMasteryUpdate(ctx context.Context) error {
	var records []models.ParticipantMastery
	if err := s.DB.Find(&records).Error; err != nil {
		return err
	}

	promoted := 0
	for i := range records {
		if err := ctx.Err(); err != nil {
			log.Printf("⏹️ mastery update stopped early (%d/%d processed): %v", i, len(records), err)
			return err
		}
		m := &records[i]
		if err := s.refreshDerivedCounters(m); err != nil {
			log.Printf("⚠️ mastery counters refresh failed for %s: %v", m.ParticipantID, err)
			continue
		}

		level, clearance, ok := EvaluateMastery(MasterySnapshot{
			DaysCompleted:      m.DaysCompleted,
			ArtifactsSubmitted: m.ArtifactsSubmitted,
			PeerAssistsGiven:   m.PeerAssistsGiven,
			AITutorSessions:    m.AITutorSessions,
			MasteryLevel:       m.MasteryLevel,
		})
		if !ok {
			continue
		}

		now := time.Now()
		m.MasteryLevel = level
		m.Clearance = clearance
		m.LastLevelUpAt = &now
		if err := s.DB.Save(m).Error; err != nil {
			log.Printf("⚠️ mastery promotion save failed for %s: %v", m.ParticipantID, err)
			continue
		}
		promoted++

		s.Activity.Log(m.ParticipantID, "mastery_promoted", "participant_mastery", m.ID, datatypes.JSONMap{
			"level":     level,
			"clearance": clearance,
		})

		var p models.Participant
		if err := s.DB.Where("id = ?", m.ParticipantID).First(&p).Error; err == nil {
			s.Notifier.SendMessages(MasteryPromotionMessage(&p, level, clearance))
		}
	}

	log.Printf("🎓 mastery update pass done: %d records, %d promoted", len(records), promoted)
	return nil
}

// refreshDerivedCounters recomputes the submission-derived counters.
// PeerAssistsGiven and AITutorSessions are maintained incrementally at their
// source events and left alone here.
func (s *MasteryService) refreshDerivedCounters(m *models.ParticipantMastery) error {
	var artifacts int64
	if err := s.DB.Model(&models.Submission{}).
		Where("participant_id = ?", m.ParticipantID).
		Count(&artifacts).Error; err != nil {
		return err
	}

	var days int64
	if err := s.DB.Model(&models.Submission{}).
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
		Where("submissions.participant_id = ? AND submissions.status = ?", m.ParticipantID, models.SubmissionApproved).
		Distinct("assignments.day").
		Count(&days).Error; err != nil {
		return err
	}

	m.ArtifactsSubmitted = artifacts
	m.DaysCompleted = days
	return s.DB.Model(&models.ParticipantMastery{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"artifacts_submitted": artifacts,
			"days_completed":      days,
		}).Error
}

// --- Handlers ---

// HandleGetMastery returns the caller's mastery record.
func (s *MasteryService) HandleGetMastery(c *fiber.Ctx) error {
	p := c.Locals("participant").(*models.Participant)
	m, err := s.EnsureMasteryRecord(s.DB, p.ID)
	if err != nil {
		return failJSON(c, err)
	}
	return c.JSON(m)
}

// HandleTutorSession records one AI-tutor session for the caller.
func (s *MasteryService) HandleTutorSession(c *fiber.Ctx) error {
	p := c.Locals("participant").(*models.Participant)
	var req struct {
		Topic string `json:"topic"`
	}
	_ = c.BodyParser(&req) // topic is optional metadata

	if err := s.IncrementCounter(s.DB, p.ID, "ai_tutor_sessions"); err != nil {
		return failJSON(c, err)
	}
	s.Activity.Log(p.ID, "tutor_session", "participant", p.ID, datatypes.JSONMap{"topic": req.Topic})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "session recorded"})
}
