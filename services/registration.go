package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"academy-dashboard/models"
	"academy-dashboard/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var validate = validator.New()

// RegistrationService owns participant onboarding and profile management.
type RegistrationService struct {
	DB          *gorm.DB
	Notifier    Notifier
	Activity    *ActivityService
	Mastery     *MasteryService
	Recognition *RecognitionService
}

func NewRegistrationService(db *gorm.DB, notifier Notifier) *RegistrationService {
	return &RegistrationService{
		DB:          db,
		Notifier:    notifier,
		Activity:    NewActivityService(db),
		Mastery:     NewMasteryService(db, notifier),
		Recognition: NewRecognitionService(db, notifier),
	}
}

type registerRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=2,max=64"`
	Team        string `json:"team" validate:"max=64"`
	Stream      string `json:"stream" validate:"max=64"`
}

// HandleRegister creates the participant row for an authenticated identity.
// Registration requires a session: the open variant of this endpoint was a
// security defect, not a feature.
func (s *RegistrationService) HandleRegister(c *fiber.Ctx) error {
	externalID := c.Locals("user_id").(string)
	email, _ := c.Locals("user_email").(string)
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no email in auth context"})
	}

	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var existing models.Participant
	err := s.DB.Where("external_user_id = ? OR email = ?", externalID, email).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already registered", "participant_id": existing.ID})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return failJSON(c, err)
	}

	handle, err := s.uniqueHandle(req.DisplayName)
	if err != nil {
		return failJSON(c, err)
	}

	p := models.Participant{
		ID:             uuid.NewString(),
		ExternalUserID: externalID,
		Email:          email,
		DisplayName:    req.DisplayName,
		Handle:         handle,
		Role:           models.RoleParticipant,
		Team:           req.Team,
		Stream:         req.Stream,
		Status:         models.ParticipantActive,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		if _, err := s.Mastery.EnsureMasteryRecord(tx, p.ID); err != nil {
			return err
		}
		if err := ensureLeaderboardEntry(tx, p.ID); err != nil {
			return err
		}
		return s.Activity.Record(tx, p.ID, "participant_registered", "participant", p.ID, datatypes.JSONMap{
			"team":   p.Team,
			"stream": p.Stream,
		})
	})
	if err != nil {
		return failJSON(c, err)
	}

	// Best-effort side effects: never fail the registration.
	if _, err := s.Recognition.AwardOnce(p.ID, models.AchievementWelcome); err != nil {
		log.Printf("⚠️ welcome award failed for %s: %v", p.ID, err)
	}
	s.Notifier.SendMessages(WelcomeMessage(&p))

	return c.Status(fiber.StatusCreated).JSON(p)
}

// uniqueHandle slugs the display name and suffixes until free.
func (s *RegistrationService) uniqueHandle(displayName string) (string, error) {
	base := slug.Make(displayName)
	if base == "" {
		base = "agent"
	}
	handle := base
	for i := 2; ; i++ {
		var count int64
		if err := s.DB.Model(&models.Participant{}).Where("handle = ?", handle).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return handle, nil
		}
		handle = fmt.Sprintf("%s-%d", base, i)
	}
}

// HandleGetProfile returns the caller's own participant record.
func (s *RegistrationService) HandleGetProfile(c *fiber.Ctx) error {
	p := c.Locals("participant").(*models.Participant)
	return c.JSON(p)
}

// HandleUpdateProfile patches mutable profile fields.
func (s *RegistrationService) HandleUpdateProfile(c *fiber.Ctx) error {
	p := c.Locals("participant").(*models.Participant)

	var req struct {
		DisplayName *string `json:"display_name" validate:"omitempty,min=2,max=64"`
		Team        *string `json:"team" validate:"omitempty,max=64"`
		Stream      *string `json:"stream" validate:"omitempty,max=64"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Team != nil {
		updates["team"] = *req.Team
	}
	if req.Stream != nil {
		updates["stream"] = *req.Stream
	}
	if len(updates) == 0 {
		return c.JSON(p)
	}

	if err := s.DB.Model(p).Updates(updates).Error; err != nil {
		return failJSON(c, err)
	}
	s.Activity.Log(p.ID, "profile_updated", "participant", p.ID, nil)
	return c.JSON(p)
}

// HandleUploadAvatar stores a new avatar in object storage.
func (s *RegistrationService) HandleUploadAvatar(c *fiber.Ctx) error {
	p := c.Locals("participant").(*models.Participant)

	if !utils.StorageReady() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "avatar storage not configured"})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is required", "field": "avatar"})
	}

	key := "avatars/" + uuid.NewString()
	url, err := utils.UploadFile(fileHeader, key)
	if err != nil {
		return failJSON(c, err)
	}

	if err := s.DB.Model(p).Update("avatar_url", url).Error; err != nil {
		return failJSON(c, err)
	}
	s.Activity.Log(p.ID, "avatar_updated", "participant", p.ID, nil)
	return c.JSON(fiber.Map{"avatar_url": url})
}

// HandleCompleteOnboarding timestamps the onboarding wizard finish.
func (s *RegistrationService) HandleCompleteOnboarding(c *fiber.Ctx) error {
	p := c.Locals("participant").(*models.Participant)
	if p.OnboardedAt != nil {
		return c.JSON(fiber.Map{"message": "already onboarded", "onboarded_at": p.OnboardedAt})
	}

	now := time.Now()
	if err := s.DB.Model(p).Update("onboarded_at", now).Error; err != nil {
		return failJSON(c, err)
	}
	s.Activity.Log(p.ID, "onboarding_completed", "participant", p.ID, nil)
	return c.JSON(fiber.Map{"message": "onboarding complete", "onboarded_at": now})
}

// validationError renders field-level detail for a 400.
func validationError(c *fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(fiber.Map, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation failed", "fields": fields})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}
