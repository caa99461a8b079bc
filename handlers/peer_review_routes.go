package handlers

import (
	"academy-dashboard/middleware"
	"academy-dashboard/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupPeerReviewRoutes(api fiber.Router, db *gorm.DB, peerReviews *services.PeerReviewService) {
	secured := api.Group("/", middleware.ParticipantLoader(db))

	secured.Post("/peer-review", peerReviews.HandlePeerReview)
	secured.Get("/peer-review/mine", peerReviews.HandleMyReviews)
}
