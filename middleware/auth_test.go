package middleware

import (
	"net/http/httptest"
	"testing"

	"academy-dashboard/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserContextMiddlewareRejectsAnonymous(t *testing.T) {
	app := fiber.New()
	app.Use(UserContextMiddleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUserContextMiddlewarePopulatesLocals(t *testing.T) {
	app := fiber.New()
	app.Use(UserContextMiddleware())

	var gotID, gotEmail string
	var gotRoles []string
	app.Get("/ping", func(c *fiber.Ctx) error {
		gotID = c.Locals("user_id").(string)
		gotEmail = c.Locals("user_email").(string)
		gotRoles, _ = c.Locals("user_roles").([]string)
		return c.SendString("pong")
	})

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-User-ID", "subject-1")
	req.Header.Set("X-User-Email", "subject@example.com")
	req.Header.Set("X-User-Roles", "mentor, admin")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "subject-1", gotID)
	assert.Equal(t, "subject@example.com", gotEmail)
	assert.Equal(t, []string{"mentor", "admin"}, gotRoles)
}

func TestCheckRole(t *testing.T) {
	tests := []struct {
		name        string
		participant models.Participant
		need        string
		wantOK      bool
	}{
		{"active participant passes default check", models.Participant{Status: models.ParticipantActive}, "", true},
		{"inactive participant fails default check", models.Participant{Status: models.ParticipantInactive}, "", false},
		{"plain participant is not a mentor", models.Participant{Status: models.ParticipantActive, Role: models.RoleParticipant}, "mentor", false},
		{"mentor role passes mentor check", models.Participant{Status: models.ParticipantActive, Role: models.RoleMentor}, "mentor", true},
		{"admin passes mentor check", models.Participant{Status: models.ParticipantActive, IsAdmin: true}, "mentor", true},
		{"mentor is not an admin", models.Participant{Status: models.ParticipantActive, Role: models.RoleMentor}, "admin", false},
		{"admin passes admin check", models.Participant{Status: models.ParticipantActive, IsAdmin: true}, "admin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CheckRole(&tt.participant, tt.need)
			assert.Equal(t, tt.wantOK, d.OK)
			if !tt.wantOK {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}
