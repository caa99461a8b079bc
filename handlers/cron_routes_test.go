package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"academy-dashboard/models"
	"academy-dashboard/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type noopNotifier struct{}

func (noopNotifier) SendMessages(...*services.Message) {}

func cronTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("CRON_SECRET", "cron-secret")

	db := openHandlersDB(t)
	notifier := noopNotifier{}
	app := fiber.New()
	SetupCronRoutes(app,
		services.NewMasteryService(db, notifier),
		services.NewLeaderboardService(db),
		services.NewRecognitionService(db, notifier),
		services.NewIntelService(db, notifier),
	)
	return app, db
}

func TestCronEndpointsRequireToken(t *testing.T) {
	app, _ := cronTestApp(t)

	for _, path := range []string{
		"/api/cron/mastery-update",
		"/api/cron/recognitions",
		"/api/cron/intel-release",
		"/api/cron/deadline-reminders",
	} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestCronIntelReleaseEndToEnd(t *testing.T) {
	app, db := cronTestApp(t)

	drop := models.IntelDrop{
		ID:        uuid.NewString(),
		Day:       1,
		Title:     "Morning briefing",
		ReleaseAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, db.Create(&drop).Error)

	req := httptest.NewRequest("GET", "/api/cron/intel-release", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "intel-release", body["job"])

	var saved models.IntelDrop
	require.NoError(t, db.Where("id = ?", drop.ID).First(&saved).Error)
	assert.True(t, saved.Released)
}

func TestCronMasteryUpdateEndpoint(t *testing.T) {
	app, db := cronTestApp(t)

	p := models.Participant{
		ID:             uuid.NewString(),
		ExternalUserID: "ext-cron",
		Email:          "cron@example.com",
		DisplayName:    "Cron Subject",
		Handle:         "cron-subject",
		Status:         models.ParticipantActive,
	}
	require.NoError(t, db.Create(&p).Error)

	req := httptest.NewRequest("GET", "/api/cron/mastery-update", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The recompute pass materializes the participant's leaderboard row.
	var count int64
	require.NoError(t, db.Model(&models.LeaderboardEntry{}).
		Where("participant_id = ?", p.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
