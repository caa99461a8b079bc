package services

import (
	"errors"
	"log"
	"math/rand"
	"time"

	"academy-dashboard/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultReviewerCount is how many reviewers an assign action picks when the
// request doesn't say otherwise.
const DefaultReviewerCount = 2

// teamPlayerReviewCount: lifetime completed reviews that trigger the
// team_player achievement.
const teamPlayerReviewCount = 5

// PeerReviewService drives the pending → completed|skipped state machine.
type PeerReviewService struct {
	DB          *gorm.DB
	Notifier    Notifier
	Activity    *ActivityService
	Mastery     *MasteryService
	Recognition *RecognitionService

	rng *rand.Rand
}

func NewPeerReviewService(db *gorm.DB, notifier Notifier) *PeerReviewService {
	return &PeerReviewService{
		DB:          db,
		Notifier:    notifier,
		Activity:    NewActivityService(db),
		Mastery:     NewMasteryService(db, notifier),
		Recognition: NewRecognitionService(db, notifier),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Reseed makes reviewer selection deterministic. Tests only.
func (s *PeerReviewService) Reseed(seed int64) {
	s.rng = rand.New(rand.NewSource(seed))
}

// Assign picks up to count reviewers for a submission, uniformly at random
// without replacement, excluding the author and anyone already assigned.
// Fewer candidates than count is fine; zero is ErrNoAvailableReviewers.
func (s *PeerReviewService) Assign(submissionID string, count int) ([]models.PeerReview, error) {
	if count <= 0 {
		count = DefaultReviewerCount
	}

	var sub models.Submission
	if err := s.DB.Preload("Assignment").Where("id = ?", submissionID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var assignedIDs []string
	if err := s.DB.Model(&models.PeerReview{}).
		Where("submission_id = ?", submissionID).
		Pluck("reviewer_id", &assignedIDs).Error; err != nil {
		return nil, err
	}
	excluded := map[string]bool{sub.ParticipantID: true}
	for _, id := range assignedIDs {
		excluded[id] = true
	}

	var participants []models.Participant
	if err := s.DB.Where("status = ? AND role = ?", models.ParticipantActive, models.RoleParticipant).
		Order("created_at ASC").
		Find(&participants).Error; err != nil {
		return nil, err
	}

	var candidates []models.Participant
	for _, p := range participants {
		if !excluded[p.ID] {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoAvailableReviewers
	}

	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if count > len(candidates) {
		count = len(candidates)
	}
	picked := candidates[:count]

	reviews := make([]models.PeerReview, 0, count)
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for _, reviewer := range picked {
			review := models.PeerReview{
				ID:           uuid.NewString(),
				SubmissionID: submissionID,
				ReviewerID:   reviewer.ID,
				Status:       models.PeerReviewPending,
			}
			if err := tx.Create(&review).Error; err != nil {
				return err
			}
			if err := s.Activity.Record(tx, reviewer.ID, "peer_review_assigned", "peer_review", review.ID, datatypes.JSONMap{
				"submission_id": submissionID,
			}); err != nil {
				return err
			}
			reviews = append(reviews, review)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	day := 0
	if sub.Assignment != nil {
		day = sub.Assignment.Day
	}
	for i := range picked {
		s.Notifier.SendMessages(PeerReviewAssignedMessage(&picked[i], day))
	}
	return reviews, nil
}

// Submit completes a pending review. Only the assigned reviewer may call it;
// rating is validated before anything is persisted. Completion grants the
// fixed bonus and, on the reviewer's 5th lifetime completion, the
// team_player achievement.
func (s *PeerReviewService) Submit(reviewID, reviewerID string, rating int, feedback string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	var completedTotal int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var review models.PeerReview
		if err := tx.Where("id = ?", reviewID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if review.ReviewerID != reviewerID {
			return ErrForbidden
		}
		if review.Status != models.PeerReviewPending {
			return ErrNotPending
		}

		now := time.Now()
		review.Status = models.PeerReviewCompleted
		review.Rating = &rating
		review.Feedback = feedback
		review.BonusPoints = models.PeerReviewBonusPoints
		review.ResolvedAt = &now
		if err := tx.Save(&review).Error; err != nil {
			return err
		}

		if err := ensureLeaderboardEntry(tx, reviewerID); err != nil {
			return err
		}
		if err := tx.Model(&models.LeaderboardEntry{}).
			Where("participant_id = ?", reviewerID).
			UpdateColumn("bonus_points", gorm.Expr("bonus_points + ?", models.PeerReviewBonusPoints)).Error; err != nil {
			return err
		}
		if err := s.Mastery.IncrementCounter(tx, reviewerID, "peer_assists_given"); err != nil {
			return err
		}

		if err := tx.Model(&models.PeerReview{}).
			Where("reviewer_id = ? AND status = ?", reviewerID, models.PeerReviewCompleted).
			Count(&completedTotal).Error; err != nil {
			return err
		}

		return s.Activity.Record(tx, reviewerID, "peer_review_completed", "peer_review", review.ID, datatypes.JSONMap{
			"rating": rating,
			"bonus":  models.PeerReviewBonusPoints,
		})
	})
	if err != nil {
		return err
	}

	if completedTotal == teamPlayerReviewCount {
		if _, err := s.Recognition.AwardOnce(reviewerID, models.AchievementTeamPlayer); err != nil {
			log.Printf("⚠️ team_player award failed for %s: %v", reviewerID, err)
		}
	}
	return nil
}

// Skip resolves a pending review with no bonus.
func (s *PeerReviewService) Skip(reviewID, reviewerID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var review models.PeerReview
		if err := tx.Where("id = ?", reviewID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if review.ReviewerID != reviewerID {
			return ErrForbidden
		}
		if review.Status != models.PeerReviewPending {
			return ErrNotPending
		}

		now := time.Now()
		review.Status = models.PeerReviewSkipped
		review.ResolvedAt = &now
		if err := tx.Save(&review).Error; err != nil {
			return err
		}
		return s.Activity.Record(tx, reviewerID, "peer_review_skipped", "peer_review", review.ID, nil)
	})
}

// --- Handlers ---

// HandlePeerReview is the POST /api/peer-review action dispatcher.
func (s *PeerReviewService) HandlePeerReview(c *fiber.Ctx) error {
	p := c.Locals("participant").(*models.Participant)

	var req struct {
		Action       string `json:"action" validate:"required,oneof=assign submit skip"`
		SubmissionID string `json:"submission_id"`
		ReviewID     string `json:"review_id"`
		Count        int    `json:"count"`
		Rating       int    `json:"rating"`
		Feedback     string `json:"feedback"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	switch req.Action {
	case "assign":
		if !p.IsMentor() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "mentor role required"})
		}
		if req.SubmissionID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "submission_id is required", "field": "submission_id"})
		}
		reviews, err := s.Assign(req.SubmissionID, req.Count)
		if err != nil {
			return failJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"assigned": len(reviews), "reviews": reviews})

	case "submit":
		if req.ReviewID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "review_id is required", "field": "review_id"})
		}
		if err := s.Submit(req.ReviewID, p.ID, req.Rating, req.Feedback); err != nil {
			return failJSON(c, err)
		}
		return c.JSON(fiber.Map{"message": "review submitted", "bonus_points": models.PeerReviewBonusPoints})

	case "skip":
		if req.ReviewID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "review_id is required", "field": "review_id"})
		}
		if err := s.Skip(req.ReviewID, p.ID); err != nil {
			return failJSON(c, err)
		}
		return c.JSON(fiber.Map{"message": "review skipped"})

	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "action must be assign, submit or skip", "field": "action"})
	}
}

// HandleMyReviews lists the caller's review queue. The author stays
// anonymous: only assignment metadata and the artifact are exposed.
func (s *PeerReviewService) HandleMyReviews(c *fiber.Ctx) error {
	p := c.Locals("participant").(*models.Participant)

	var reviews []models.PeerReview
	if err := s.DB.Preload("Submission").Preload("Submission.Assignment").
		Where("reviewer_id = ?", p.ID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return failJSON(c, err)
	}

	out := make([]fiber.Map, 0, len(reviews))
	for _, r := range reviews {
		entry := fiber.Map{
			"id":          r.ID,
			"status":      r.Status,
			"rating":      r.Rating,
			"feedback":    r.Feedback,
			"assigned_at": r.CreatedAt,
			"resolved_at": r.ResolvedAt,
		}
		if r.Submission != nil {
			entry["artifact_url"] = r.Submission.ArtifactURL
			entry["notes"] = r.Submission.Notes
			if r.Submission.Assignment != nil {
				entry["day"] = r.Submission.Assignment.Day
				entry["assignment_title"] = r.Submission.Assignment.Title
			}
		}
		out = append(out, entry)
	}
	return c.JSON(out)
}
