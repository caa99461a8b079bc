package handlers

import (
	"academy-dashboard/middleware"
	"academy-dashboard/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupParticipantRoutes(api fiber.Router, db *gorm.DB, registration *services.RegistrationService, mastery *services.MasteryService, recognition *services.RecognitionService) {
	// Registration needs a session but no participant row yet.
	api.Post("/register", registration.HandleRegister)

	// Everything else requires a registered participant.
	me := api.Group("/", middleware.ParticipantLoader(db))
	me.Get("/profile", registration.HandleGetProfile)
	me.Patch("/profile", registration.HandleUpdateProfile)
	me.Post("/profile/avatar", registration.HandleUploadAvatar)
	me.Post("/onboarding/complete", registration.HandleCompleteOnboarding)

	me.Get("/mastery", mastery.HandleGetMastery)
	me.Post("/tutor-sessions", mastery.HandleTutorSession)
	me.Get("/achievements", recognition.HandleListAchievements)
}
