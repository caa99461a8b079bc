package services

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Sentinel errors shared across services. Handlers map these onto HTTP
// statuses via failJSON; anything unrecognized is a 500.
var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicate            = errors.New("record already exists")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrNotPending           = errors.New("peer review is no longer pending")
	ErrNoAvailableReviewers = errors.New("no available reviewers")
)

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return fiber.StatusConflict
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrInvalidRating), errors.Is(err, ErrNoAvailableReviewers), errors.Is(err, ErrNotPending):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// failJSON renders an error response. Unexpected errors are logged with a
// correlation ID and never leak internal detail to the caller.
func failJSON(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		corrID := uuid.NewString()
		log.Printf("❌ [%s] %s %s: %v", corrID, c.Method(), c.Path(), err)
		return c.Status(status).JSON(fiber.Map{
			"error":          "internal error",
			"correlation_id": corrID,
		})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
