package handlers

import (
	"academy-dashboard/middleware"
	"academy-dashboard/services"

	"github.com/gofiber/fiber/v2"
)

// SetupCronRoutes exposes the scheduled jobs over HTTP for hosted cron
// platforms. Same implementations as the in-process scheduler; both sides
// tolerate at-least-once invocation.
func SetupCronRoutes(app *fiber.App, mastery *services.MasteryService, leaderboard *services.LeaderboardService, recognition *services.RecognitionService, intel *services.IntelService) {
	cron := app.Group("/api/cron", middleware.CronAuthMiddleware())

	cron.Get("/mastery-update", func(c *fiber.Ctx) error {
		ctx, cancel := services.JobContext(c.Context())
		defer cancel()
		if err := leaderboard.Recompute(ctx); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "mastery update failed"})
		}
		if err := mastery.RunMasteryUpdate(ctx); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "mastery update failed"})
		}
		return c.JSON(fiber.Map{"job": "mastery-update", "status": "ok"})
	})

	cron.Get("/recognitions", func(c *fiber.Ctx) error {
		ctx, cancel := services.JobContext(c.Context())
		defer cancel()
		if err := recognition.RunRecognitionScan(ctx); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "recognition scan failed"})
		}
		return c.JSON(fiber.Map{"job": "recognitions", "status": "ok"})
	})

	cron.Get("/intel-release", func(c *fiber.Ctx) error {
		ctx, cancel := services.JobContext(c.Context())
		defer cancel()
		if err := intel.ReleaseDueDrops(ctx); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "intel release failed"})
		}
		return c.JSON(fiber.Map{"job": "intel-release", "status": "ok"})
	})

	cron.Get("/deadline-reminders", func(c *fiber.Ctx) error {
		ctx, cancel := services.JobContext(c.Context())
		defer cancel()
		if err := intel.SendDeadlineReminders(ctx); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "deadline reminders failed"})
		}
		return c.JSON(fiber.Map{"job": "deadline-reminders", "status": "ok"})
	})
}
