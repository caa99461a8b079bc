package handlers

import (
	"academy-dashboard/middleware"
	"academy-dashboard/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupSubmissionRoutes(api fiber.Router, db *gorm.DB, submissions *services.SubmissionService, comments *services.CommentService) {
	secured := api.Group("/", middleware.ParticipantLoader(db))

	secured.Get("/assignments", submissions.HandleListAssignments)
	secured.Post("/submissions", submissions.HandleCreateSubmission)
	secured.Get("/submissions/mine", submissions.HandleListMySubmissions)

	// Role checks attach per route: a group-level Use binds to the shared
	// /api prefix and would gate every route registered after it.
	mentorOnly := middleware.RequireRole("mentor")
	secured.Post("/review", mentorOnly, submissions.HandleReview)
	secured.Post("/bulk-review", mentorOnly, submissions.HandleBulkReview)

	secured.Get("/export/submissions", middleware.RequireRole("admin"), submissions.HandleExportCSV)

	// Comments
	secured.Get("/comments", comments.HandleListComments)
	secured.Post("/comments", comments.HandleCreateComment)
	secured.Patch("/comments/:id", comments.HandleUpdateComment)
	secured.Delete("/comments/:id", comments.HandleDeleteComment)
}
