// middleware/cron_auth.go
package middleware

import (
	"crypto/subtle"
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CronAuthMiddleware gates the scheduled endpoints on bearer CRON_SECRET.
// Comparison is constant-time. Fails closed: with no secret configured the
// endpoints are unusable, not open.
func CronAuthMiddleware() fiber.Handler {
	secret := os.Getenv("CRON_SECRET")
	if secret == "" {
		log.Println("⚠️  CRON_SECRET not set — cron endpoints are disabled")
	}

	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "cron endpoints are not configured",
			})
		}

		token := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			log.Printf("🚫 [CRON_AUTH] rejected %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid cron token",
			})
		}
		return c.Next()
	}
}
