package services

import (
	"errors"

	"academy-dashboard/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentService is the submission discussion CRUD.
type CommentService struct {
	DB       *gorm.DB
	Activity *ActivityService
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{DB: db, Activity: NewActivityService(db)}
}

// HandleListComments returns comments for a submission, oldest first.
func (s *CommentService) HandleListComments(c *fiber.Ctx) error {
	submissionID := c.Query("submission_id")
	if submissionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "submission_id is required", "field": "submission_id"})
	}

	var comments []models.Comment
	if err := s.DB.Preload("Author").
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return failJSON(c, err)
	}

	out := make([]fiber.Map, 0, len(comments))
	for _, cm := range comments {
		row := fiber.Map{
			"id":         cm.ID,
			"body":       cm.Body,
			"created_at": cm.CreatedAt,
			"updated_at": cm.UpdatedAt,
		}
		if cm.Author != nil {
			row["author"] = fiber.Map{
				"display_name": cm.Author.DisplayName,
				"handle":       cm.Author.Handle,
				"avatar_url":   cm.Author.AvatarURL,
			}
		}
		out = append(out, row)
	}
	return c.JSON(out)
}

// HandleCreateComment adds a comment to a submission.
func (s *CommentService) HandleCreateComment(c *fiber.Ctx) error {
	p := c.Locals("participant").(*models.Participant)

	var req struct {
		SubmissionID string `json:"submission_id" validate:"required,uuid"`
		Body         string `json:"body" validate:"required,min=1,max=4000"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var count int64
	if err := s.DB.Model(&models.Submission{}).Where("id = ?", req.SubmissionID).Count(&count).Error; err != nil {
		return failJSON(c, err)
	}
	if count == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "submission not found"})
	}

	comment := models.Comment{
		ID:           uuid.NewString(),
		SubmissionID: req.SubmissionID,
		AuthorID:     p.ID,
		Body:         req.Body,
	}
	if err := s.DB.Create(&comment).Error; err != nil {
		return failJSON(c, err)
	}
	s.Activity.Log(p.ID, "comment_created", "comment", comment.ID, nil)
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// HandleUpdateComment edits a comment body. Authors only.
func (s *CommentService) HandleUpdateComment(c *fiber.Ctx) error {
	p := c.Locals("participant").(*models.Participant)
	id := c.Params("id")

	var req struct {
		Body string `json:"body" validate:"required,min=1,max=4000"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var comment models.Comment
	if err := s.DB.Where("id = ?", id).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "comment not found"})
		}
		return failJSON(c, err)
	}
	if comment.AuthorID != p.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not your comment"})
	}

	if err := s.DB.Model(&comment).Update("body", req.Body).Error; err != nil {
		return failJSON(c, err)
	}
	return c.JSON(comment)
}

// HandleDeleteComment removes a comment. Authors may delete their own,
// admins may delete any.
func (s *CommentService) HandleDeleteComment(c *fiber.Ctx) error {
	p := c.Locals("participant").(*models.Participant)
	id := c.Params("id")

	var comment models.Comment
	if err := s.DB.Where("id = ?", id).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "comment not found"})
		}
		return failJSON(c, err)
	}
	if comment.AuthorID != p.ID && !p.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not your comment"})
	}

	if err := s.DB.Delete(&comment).Error; err != nil {
		return failJSON(c, err)
	}
	s.Activity.Log(p.ID, "comment_deleted", "comment", comment.ID, nil)
	return c.JSON(fiber.Map{"message": "comment deleted"})
}
