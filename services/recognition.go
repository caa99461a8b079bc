package services

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"academy-dashboard/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Recognition rule thresholds.
const (
	earlyRiserBeforeHour  = 8
	nightScholarFromHour  = 22
	momentumMinStreak     = 5
	teamSupporterAssists  = 3
	recognitionWindowBack = 24 * time.Hour
)

// RecognitionService runs the scheduled behavioral scans and owns the award
// idempotency guard shared by recognitions and catalog achievements.
type RecognitionService struct {
	DB       *gorm.DB
	Notifier Notifier
	Activity *ActivityService

	// Loc anchors the "local hour" rules. Configured via ACADEMY_TIMEZONE,
	// overridable in tests.
	Loc *time.Location
}

func NewRecognitionService(db *gorm.DB, notifier Notifier) *RecognitionService {
	loc := time.UTC
	if tz := os.Getenv("ACADEMY_TIMEZONE"); tz != "" {
		if parsed, err := time.LoadLocation(tz); err == nil {
			loc = parsed
		} else {
			log.Printf("⚠️ invalid ACADEMY_TIMEZONE %q, using UTC: %v", tz, err)
		}
	}
	return &RecognitionService{DB: db, Notifier: notifier, Activity: NewActivityService(db), Loc: loc}
}

// AwardOnce grants (participant, code) at most once: existence check, then
// insert plus exactly one activity entry, in one transaction. Returns whether
// the award is new. Concurrent duplicates are left to the unique constraint.
func (s *RecognitionService) AwardOnce(participantID, code string) (bool, error) {
	var ach models.Achievement
	if err := s.DB.Where("code = ?", code).First(&ach).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}

	newly := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ParticipantAchievement{}).
			Where("participant_id = ? AND achievement_id = ?", participantID, ach.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil // already awarded
		}

		award := models.ParticipantAchievement{
			ID:            uuid.NewString(),
			ParticipantID: participantID,
			AchievementID: ach.ID,
		}
		if err := tx.Create(&award).Error; err != nil {
			return err
		}
		if err := s.Activity.Record(tx, participantID, "achievement_awarded", "achievement", ach.ID, datatypes.JSONMap{
			"code": ach.Code,
			"kind": ach.Kind,
		}); err != nil {
			return err
		}
		newly = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if newly {
		log.Printf("🎖️ awarded %s → %s", code, participantID)
		var p models.Participant
		if err := s.DB.Where("id = ?", participantID).First(&p).Error; err == nil {
			s.Notifier.SendMessages(AchievementMessage(&p, &ach))
		}
	}
	return newly, nil
}

// RunRecognitionScan evaluates all four rules. Rules are independent and
// idempotent by construction, so re-running a pass is always safe.
func (s *RecognitionService) RunRecognitionScan(ctx context.Context) error {
	rules := []struct {
		code string
		eval func() ([]string, error)
	}{
		{models.RecognitionEarlyRiser, s.earlyRisers},
		{models.RecognitionNightScholar, s.nightScholars},
		{models.RecognitionMomentum, s.momentum},
		{models.RecognitionTeamSupporter, s.teamSupporters},
	}

	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return err
		}
		ids, err := rule.eval()
		if err != nil {
			log.Printf("⚠️ recognition rule %s failed: %v", rule.code, err)
			continue
		}
		for _, id := range ids {
			if _, err := s.AwardOnce(id, rule.code); err != nil {
				log.Printf("⚠️ recognition award %s → %s failed: %v", rule.code, id, err)
			}
		}
	}
	return nil
}

// earlyRisers: any submission in the last rolling day with local hour < 8.
func (s *RecognitionService) earlyRisers() ([]string, error) {
	return s.submittersByHour(func(h int) bool { return h < earlyRiserBeforeHour })
}

// nightScholars: any submission in the last rolling day with local hour ≥ 22.
func (s *RecognitionService) nightScholars() ([]string, error) {
	return s.submittersByHour(func(h int) bool { return h >= nightScholarFromHour })
}

func (s *RecognitionService) submittersByHour(match func(int) bool) ([]string, error) {
	since := time.Now().Add(-recognitionWindowBack)
	var subs []models.Submission
	if err := s.DB.Where("created_at >= ?", since).Find(&subs).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, sub := range subs {
		if seen[sub.ParticipantID] {
			continue
		}
		if match(sub.CreatedAt.In(s.Loc).Hour()) {
			seen[sub.ParticipantID] = true
			ids = append(ids, sub.ParticipantID)
		}
	}
	return ids, nil
}

// momentum: current_streak ≥ 5, read straight off the leaderboard aggregate.
func (s *RecognitionService) momentum() ([]string, error) {
	var ids []string
	err := s.DB.Model(&models.LeaderboardEntry{}).
		Where("current_streak >= ?", momentumMinStreak).
		Pluck("participant_id", &ids).Error
	return ids, err
}

// teamSupporters: peer_assists_given ≥ 3.
func (s *RecognitionService) teamSupporters() ([]string, error) {
	var ids []string
	err := s.DB.Model(&models.ParticipantMastery{}).
		Where("peer_assists_given >= ?", teamSupporterAssists).
		Pluck("participant_id", &ids).Error
	return ids, err
}

// --- Handlers ---

// HandleListAchievements returns the catalog plus the caller's awards.
func (s *RecognitionService) HandleListAchievements(c *fiber.Ctx) error {
	p := c.Locals("participant").(*models.Participant)

	var catalog []models.Achievement
	if err := s.DB.Order("created_at ASC").Find(&catalog).Error; err != nil {
		return failJSON(c, err)
	}

	var awards []models.ParticipantAchievement
	if err := s.DB.Where("participant_id = ?", p.ID).Find(&awards).Error; err != nil {
		return failJSON(c, err)
	}

	earned := make(map[string]time.Time, len(awards))
	for _, a := range awards {
		earned[a.AchievementID] = a.AwardedAt
	}

	var out []fiber.Map
	for _, a := range catalog {
		entry := fiber.Map{
			"code":        a.Code,
			"name":        a.Name,
			"description": a.Description,
			"kind":        a.Kind,
			"rarity":      a.Rarity,
			"icon_url":    a.IconURL,
			"earned":      false,
		}
		if at, ok := earned[a.ID]; ok {
			entry["earned"] = true
			entry["awarded_at"] = at
		}
		out = append(out, entry)
	}
	return c.JSON(out)
}
