package services

import (
	"encoding/csv"
	"errors"
	"log"
	"strconv"
	"time"

	"academy-dashboard/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubmissionService owns assignment submissions and the mentor review flow.
type SubmissionService struct {
	DB          *gorm.DB
	Notifier    Notifier
	Activity    *ActivityService
	Recognition *RecognitionService
}

func NewSubmissionService(db *gorm.DB, notifier Notifier) *SubmissionService {
	return &SubmissionService{
		DB:          db,
		Notifier:    notifier,
		Activity:    NewActivityService(db),
		Recognition: NewRecognitionService(db, notifier),
	}
}

// HandleCreateSubmission records one participant's attempt at an assignment.
// A second attempt at the same assignment is a 409.
func (s *SubmissionService) HandleCreateSubmission(c *fiber.Ctx) error {
	p := c.Locals("participant").(*models.Participant)

	var req struct {
		AssignmentID string `json:"assignment_id" validate:"required,uuid"`
		ArtifactURL  string `json:"artifact_url" validate:"required,url"`
		Notes        string `json:"notes" validate:"max=4000"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var assignment models.Assignment
	if err := s.DB.Where("id = ?", req.AssignmentID).First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "assignment not found"})
		}
		return failJSON(c, err)
	}

	var count int64
	if err := s.DB.Model(&models.Submission{}).
		Where("participant_id = ? AND assignment_id = ?", p.ID, req.AssignmentID).
		Count(&count).Error; err != nil {
		return failJSON(c, err)
	}
	if count > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already submitted for this assignment"})
	}

	sub := models.Submission{
		ID:            uuid.NewString(),
		ParticipantID: p.ID,
		AssignmentID:  req.AssignmentID,
		ArtifactURL:   req.ArtifactURL,
		Notes:         req.Notes,
		Status:        models.SubmissionSubmitted,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		if err := ensureLeaderboardEntry(tx, p.ID); err != nil {
			return err
		}
		now := time.Now()
		if err := tx.Model(&models.LeaderboardEntry{}).
			Where("participant_id = ?", p.ID).
			Update("last_submission_at", now).Error; err != nil {
			return err
		}
		return s.Activity.Record(tx, p.ID, "submission_created", "submission", sub.ID, datatypes.JSONMap{
			"assignment_id": req.AssignmentID,
			"day":           assignment.Day,
		})
	})
	if err != nil {
		return failJSON(c, err)
	}

	if _, err := s.Recognition.AwardOnce(p.ID, models.AchievementFirstArtifact); err != nil {
		log.Printf("⚠️ first_artifact award failed for %s: %v", p.ID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(sub)
}

// HandleListMySubmissions returns the caller's submissions newest-first.
func (s *SubmissionService) HandleListMySubmissions(c *fiber.Ctx) error {
	p := c.Locals("participant").(*models.Participant)
	var subs []models.Submission
	if err := s.DB.Preload("Assignment").
		Where("participant_id = ?", p.ID).
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return failJSON(c, err)
	}
	return c.JSON(subs)
}

type reviewRequest struct {
	SubmissionID string `json:"submission_id" validate:"required,uuid"`
	Status       string `json:"status" validate:"required,oneof=reviewed needs_revision approved"`
	Rating       *int   `json:"rating" validate:"omitempty,min=1,max=5"`
	Feedback     string `json:"feedback" validate:"max=4000"`
}

// HandleReview applies a mentor decision to one submission.
func (s *SubmissionService) HandleReview(c *fiber.Ctx) error {
	mentor := c.Locals("participant").(*models.Participant)

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	if err := s.review(mentor, req); err != nil {
		return failJSON(c, err)
	}
	return c.JSON(fiber.Map{"message": "review recorded", "submission_id": req.SubmissionID})
}

// HandleBulkReview applies one mentor decision to many submissions. Partial
// failures are reported per submission, not rolled back across the batch.
func (s *SubmissionService) HandleBulkReview(c *fiber.Ctx) error {
	mentor := c.Locals("participant").(*models.Participant)

	var req struct {
		SubmissionIDs []string `json:"submission_ids" validate:"required,min=1,max=100,dive,uuid"`
		Status        string   `json:"status" validate:"required,oneof=reviewed needs_revision approved"`
		Rating        *int     `json:"rating" validate:"omitempty,min=1,max=5"`
		Feedback      string   `json:"feedback" validate:"max=4000"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	results := make([]fiber.Map, 0, len(req.SubmissionIDs))
	for _, id := range req.SubmissionIDs {
		err := s.review(mentor, reviewRequest{
			SubmissionID: id,
			Status:       req.Status,
			Rating:       req.Rating,
			Feedback:     req.Feedback,
		})
		entry := fiber.Map{"submission_id": id, "ok": err == nil}
		if err != nil {
			entry["error"] = err.Error()
		}
		results = append(results, entry)
	}
	return c.JSON(fiber.Map{"results": results})
}

func (s *SubmissionService) review(mentor *models.Participant, req reviewRequest) error {
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return ErrInvalidRating
	}

	var sub models.Submission
	var assignment models.Assignment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", req.SubmissionID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Where("id = ?", sub.AssignmentID).First(&assignment).Error; err != nil {
			return err
		}

		now := time.Now()
		sub.Status = req.Status
		sub.Rating = req.Rating
		sub.MentorFeedback = req.Feedback
		sub.ReviewedBy = &mentor.ID
		sub.ReviewedAt = &now
		if err := tx.Save(&sub).Error; err != nil {
			return err
		}

		return s.Activity.Record(tx, mentor.ID, "submission_reviewed", "submission", sub.ID, datatypes.JSONMap{
			"status":         req.Status,
			"participant_id": sub.ParticipantID,
		})
	})
	if err != nil {
		return err
	}

	var author models.Participant
	if err := s.DB.Where("id = ?", sub.ParticipantID).First(&author).Error; err == nil {
		s.Notifier.SendMessages(SubmissionReviewedMessage(&author, &assignment, req.Status, req.Feedback))
	}
	return nil
}

// HandleExportCSV streams all submissions as CSV. Admin only.
func (s *SubmissionService) HandleExportCSV(c *fiber.Ctx) error {
	var subs []models.Submission
	if err := s.DB.Preload("Participant").Preload("Assignment").
		Order("created_at ASC").
		Find(&subs).Error; err != nil {
		return failJSON(c, err)
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", `attachment; filename="submissions.csv"`)

	w := csv.NewWriter(c)
	_ = w.Write([]string{"submission_id", "participant", "handle", "day", "assignment", "status", "rating", "submitted_at"})
	for _, sub := range subs {
		name, handle := "", ""
		if sub.Participant != nil {
			name, handle = sub.Participant.DisplayName, sub.Participant.Handle
		}
		day, title := "", ""
		if sub.Assignment != nil {
			day, title = strconv.Itoa(sub.Assignment.Day), sub.Assignment.Title
		}
		rating := ""
		if sub.Rating != nil {
			rating = strconv.Itoa(*sub.Rating)
		}
		_ = w.Write([]string{sub.ID, name, handle, day, title, sub.Status, rating, sub.CreatedAt.Format(time.RFC3339)})
	}
	w.Flush()
	return w.Error()
}

// HandleListAssignments returns the static assignment catalog.
func (s *SubmissionService) HandleListAssignments(c *fiber.Ctx) error {
	var assignments []models.Assignment
	if err := s.DB.Order("day ASC").Find(&assignments).Error; err != nil {
		return failJSON(c, err)
	}
	return c.JSON(assignments)
}
