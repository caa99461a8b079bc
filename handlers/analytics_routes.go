package handlers

import (
	"academy-dashboard/middleware"
	"academy-dashboard/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupAnalyticsRoutes(api fiber.Router, db *gorm.DB, leaderboard *services.LeaderboardService, intel *services.IntelService, content *services.ContentService) {
	secured := api.Group("/", middleware.ParticipantLoader(db))

	secured.Get("/leaderboard", leaderboard.HandleLeaderboard)
	secured.Get("/analytics", leaderboard.HandleAnalytics)

	secured.Get("/intel", intel.HandleListIntel)
	secured.Get("/content/day/:id", content.HandleDayContent)

	// Per-route check; see submission_routes.go for why not a group Use.
	secured.Post("/intel", middleware.RequireRole("admin"), intel.HandleCreateIntel)
}
