package services

import (
	"context"
	"log"
	"time"

	"academy-dashboard/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IntelService owns scheduled content releases and deadline reminders.
type IntelService struct {
	DB       *gorm.DB
	Notifier Notifier
	Activity *ActivityService
}

func NewIntelService(db *gorm.DB, notifier Notifier) *IntelService {
	return &IntelService{DB: db, Notifier: notifier, Activity: NewActivityService(db)}
}

// ReleaseDueDrops flips due drops to released and fans out the announcement.
// Sweep shape: query due rows, mutate one by one, log failures and move on.
func (s *IntelService) ReleaseDueDrops(ctx context.Context) error {
	var drops []models.IntelDrop
	now := time.Now()
	if err := s.DB.Where("released = ? AND release_at <= ?", false, now).Find(&drops).Error; err != nil {
		return err
	}

	for i := range drops {
		if err := ctx.Err(); err != nil {
			return err
		}
		d := &drops[i]
		releasedAt := time.Now()
		d.Released = true
		d.ReleasedAt = &releasedAt
		if err := s.DB.Save(d).Error; err != nil {
			log.Printf("⚠️ intel release failed for %s: %v", d.ID, err)
			continue
		}
		log.Printf("📡 intel drop released: day %d — %s", d.Day, d.Title)

		var recipients []models.Participant
		if err := s.DB.Where("status = ?", models.ParticipantActive).Find(&recipients).Error; err != nil {
			log.Printf("⚠️ intel fan-out recipient query failed: %v", err)
			continue
		}
		msgs := make([]*Message, 0, len(recipients))
		for j := range recipients {
			msgs = append(msgs, IntelDropMessage(&recipients[j], d))
		}
		s.Notifier.SendMessages(msgs...)
	}
	return nil
}

// SendDeadlineReminders emails active participants who haven't submitted an
// assignment due within the next day.
func (s *IntelService) SendDeadlineReminders(ctx context.Context) error {
	now := time.Now()
	cutoff := now.Add(24 * time.Hour)

	var due []models.Assignment
	if err := s.DB.Where("due_at IS NOT NULL AND due_at > ? AND due_at <= ?", now, cutoff).Find(&due).Error; err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	var participants []models.Participant
	if err := s.DB.Where("status = ? AND role = ?", models.ParticipantActive, models.RoleParticipant).
		Find(&participants).Error; err != nil {
		return err
	}

	reminded := 0
	for i := range due {
		a := &due[i]
		for j := range participants {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := &participants[j]
			var count int64
			if err := s.DB.Model(&models.Submission{}).
				Where("participant_id = ? AND assignment_id = ?", p.ID, a.ID).
				Count(&count).Error; err != nil {
				log.Printf("⚠️ reminder lookup failed (participant=%s): %v", p.ID, err)
				continue
			}
			if count > 0 {
				continue
			}
			s.Notifier.SendMessages(DeadlineReminderMessage(p, a))
			reminded++
		}
	}
	log.Printf("⏰ deadline reminders sent: %d (assignments due: %d)", reminded, len(due))
	return nil
}

// --- Handlers ---

// HandleListIntel returns released drops, newest first.
func (s *IntelService) HandleListIntel(c *fiber.Ctx) error {
	var drops []models.IntelDrop
	if err := s.DB.Where("released = ?", true).
		Order("release_at DESC").
		Find(&drops).Error; err != nil {
		return failJSON(c, err)
	}
	return c.JSON(drops)
}

// HandleCreateIntel schedules a new drop. Admin only.
func (s *IntelService) HandleCreateIntel(c *fiber.Ctx) error {
	p := c.Locals("participant").(*models.Participant)

	var req struct {
		Day       int       `json:"day" validate:"required,min=1"`
		Title     string    `json:"title" validate:"required,max=200"`
		Body      string    `json:"body" validate:"max=8000"`
		LinkURL   string    `json:"link_url" validate:"omitempty,url"`
		ReleaseAt time.Time `json:"release_at" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	drop := models.IntelDrop{
		ID:        uuid.NewString(),
		Day:       req.Day,
		Title:     req.Title,
		Body:      req.Body,
		LinkURL:   req.LinkURL,
		ReleaseAt: req.ReleaseAt,
	}
	if err := s.DB.Create(&drop).Error; err != nil {
		return failJSON(c, err)
	}
	s.Activity.Log(p.ID, "intel_scheduled", "intel_drop", drop.ID, nil)
	return c.Status(fiber.StatusCreated).JSON(drop)
}
