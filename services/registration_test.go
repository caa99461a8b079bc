package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"academy-dashboard/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// registerApp wires HandleRegister behind a stub auth context.
func registerApp(svc *RegistrationService, userID, email string) *fiber.App {
	app := fiber.New()
	app.Post("/register", func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("user_email", email)
		return svc.HandleRegister(c)
	})
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return testJSON(t, app, req)
}

func getJSON(t *testing.T, app *fiber.App, path string) (int, map[string]interface{}) {
	t.Helper()
	return testJSON(t, app, httptest.NewRequest("GET", path, nil))
}

func testJSON(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp.StatusCode, parsed
}

func TestRegisterCreatesParticipantWithSupportRows(t *testing.T) {
	db := openTestDB(t)
	notifier := &captureNotifier{}
	svc := NewRegistrationService(db, notifier)
	app := registerApp(svc, "ext-123", "ada@example.com")

	status, body := postJSON(t, app, "/register", `{"display_name":"Ada Lovelace","team":"alpha","stream":"engineering"}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "ada-lovelace", body["handle"])

	var p models.Participant
	require.NoError(t, db.Where("external_user_id = ?", "ext-123").First(&p).Error)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, models.RoleParticipant, p.Role)
	assert.Equal(t, models.ParticipantActive, p.Status)

	// Mastery and leaderboard rows come up with the participant.
	var mastery models.ParticipantMastery
	require.NoError(t, db.Where("participant_id = ?", p.ID).First(&mastery).Error)
	assert.Equal(t, 1, mastery.MasteryLevel)

	var entry models.LeaderboardEntry
	require.NoError(t, db.Where("participant_id = ?", p.ID).First(&entry).Error)

	// Welcome achievement plus welcome email.
	assert.EqualValues(t, 1, awardCount(t, db, p.ID, models.AchievementWelcome))
	assert.Equal(t, 2, notifier.count()) // achievement + welcome
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	db := openTestDB(t)
	svc := NewRegistrationService(db, &captureNotifier{})
	app := registerApp(svc, "ext-123", "ada@example.com")

	status, _ := postJSON(t, app, "/register", `{"display_name":"Ada Lovelace"}`)
	require.Equal(t, fiber.StatusCreated, status)

	status, body := postJSON(t, app, "/register", `{"display_name":"Ada Again"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Contains(t, body["error"], "already registered")
}

func TestRegisterDuplicateEmailDifferentSubject(t *testing.T) {
	db := openTestDB(t)
	svc := NewRegistrationService(db, &captureNotifier{})

	status, _ := postJSON(t, registerApp(svc, "ext-1", "shared@example.com"), "/register", `{"display_name":"First One"}`)
	require.Equal(t, fiber.StatusCreated, status)

	status, _ = postJSON(t, registerApp(svc, "ext-2", "shared@example.com"), "/register", `{"display_name":"Second One"}`)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestRegisterValidation(t *testing.T) {
	db := openTestDB(t)
	svc := NewRegistrationService(db, &captureNotifier{})
	app := registerApp(svc, "ext-123", "ada@example.com")

	status, body := postJSON(t, app, "/register", `{"display_name":"A"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "validation failed", body["error"])

	status, _ = postJSON(t, app, "/register", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRegisterRequiresEmail(t *testing.T) {
	db := openTestDB(t)
	svc := NewRegistrationService(db, &captureNotifier{})
	app := registerApp(svc, "ext-123", "")

	status, body := postJSON(t, app, "/register", `{"display_name":"Ghost User"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["error"], "email")
}

func TestUniqueHandleSuffixes(t *testing.T) {
	db := openTestDB(t)
	svc := NewRegistrationService(db, &captureNotifier{})

	seed := func(handle string) {
		require.NoError(t, db.Create(&models.Participant{
			ID:             handle,
			ExternalUserID: "ext-" + handle,
			Email:          handle + "@example.com",
			DisplayName:    handle,
			Handle:         handle,
			Status:         models.ParticipantActive,
		}).Error)
	}
	seed("jo-smith")
	seed("jo-smith-2")

	handle, err := svc.uniqueHandle("Jo Smith")
	require.NoError(t, err)
	assert.Equal(t, "jo-smith-3", handle)

	handle, err = svc.uniqueHandle("Fresh Name")
	require.NoError(t, err)
	assert.Equal(t, "fresh-name", handle)
}

func TestUniqueHandleBubblesLookupErrors(t *testing.T) {
	db := openTestDB(t)
	svc := NewRegistrationService(db, &captureNotifier{})

	// Force the lookup to fail instead of treating it as "handle is free".
	require.NoError(t, db.Migrator().DropTable(&models.Participant{}))

	_, err := svc.uniqueHandle("Jo Smith")
	assert.Error(t, err)
}
