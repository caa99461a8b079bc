// middleware/auth.go
package middleware

import (
	"errors"
	"log"
	"strings"

	"academy-dashboard/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserContextMiddleware extracts the authenticated identity forwarded by the
// auth gateway. Requests without a subject are rejected — there is no
// anonymous surface behind /api.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through the auth gateway",
			})
		}

		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}

		c.Locals("user_id", userID)
		c.Locals("user_email", c.Get("X-User-Email"))
		c.Locals("user_roles", roles)
		return c.Next()
	}
}

// Decision is the typed result of an authorization check.
type Decision struct {
	OK     bool
	Reason string
}

func allow() Decision { return Decision{OK: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// CheckRole decides whether a participant may act in the required capacity.
func CheckRole(p *models.Participant, need string) Decision {
	switch need {
	case "admin":
		if p.IsAdmin {
			return allow()
		}
		return deny("admin role required")
	case "mentor":
		if p.IsMentor() {
			return allow()
		}
		return deny("mentor role required")
	default:
		if p.Status != models.ParticipantActive {
			return deny("participant is inactive")
		}
		return allow()
	}
}

// ParticipantLoader resolves the session subject to a Participant row and
// attaches it at locals "participant". Unregistered identities get a 403
// pointing at /api/register. Each route area registers its own copy against
// the shared /api prefix, so the loader short-circuits once resolved.
func ParticipantLoader(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals("participant").(*models.Participant); ok {
			return c.Next()
		}

		userID := c.Locals("user_id").(string)

		var p models.Participant
		if err := db.Where("external_user_id = ?", userID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "not registered — POST /api/register first",
				})
			}
			log.Printf("❌ participant lookup failed for %s: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}

		if d := CheckRole(&p, ""); !d.OK {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": d.Reason})
		}

		c.Locals("participant", &p)
		return c.Next()
	}
}

// RequireRole gates a route on CheckRole. Use after ParticipantLoader.
func RequireRole(need string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := c.Locals("participant").(*models.Participant)
		if d := CheckRole(p, need); !d.OK {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": d.Reason})
		}
		return c.Next()
	}
}
