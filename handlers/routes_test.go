package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"academy-dashboard/middleware"
	"academy-dashboard/models"
	"academy-dashboard/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openHandlersDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Participant{},
		&models.Assignment{},
		&models.Submission{},
		&models.PeerReview{},
		&models.Achievement{},
		&models.ParticipantAchievement{},
		&models.ParticipantMastery{},
		&models.LeaderboardEntry{},
		&models.ActivityLog{},
		&models.IntelDrop{},
		&models.Comment{},
	))
	require.NoError(t, services.SeedAchievementCatalog(db))
	return db
}

// composedApp mirrors the route composition in main.go: cron routes first,
// then every area under the session-guarded /api group, in the same order.
func composedApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := openHandlersDB(t)
	notifier := noopNotifier{}

	registration := services.NewRegistrationService(db, notifier)
	submissions := services.NewSubmissionService(db, notifier)
	peerReviews := services.NewPeerReviewService(db, notifier)
	mastery := services.NewMasteryService(db, notifier)
	recognition := services.NewRecognitionService(db, notifier)
	leaderboard := services.NewLeaderboardService(db)
	intel := services.NewIntelService(db, notifier)
	comments := services.NewCommentService(db)
	content := services.NewContentService()

	app := fiber.New()
	SetupCronRoutes(app, mastery, leaderboard, recognition, intel)

	limiter := middleware.NewRateLimiter(1000, time.Minute)
	api := app.Group("/api", middleware.UserContextMiddleware(), limiter.Handler())
	SetupParticipantRoutes(api, db, registration, mastery, recognition)
	SetupSubmissionRoutes(api, db, submissions, comments)
	SetupPeerReviewRoutes(api, db, peerReviews)
	SetupAnalyticsRoutes(api, db, leaderboard, intel, content)

	return app, db
}

func seedUser(t *testing.T, db *gorm.DB, name, role string, admin bool) *models.Participant {
	t.Helper()
	p := &models.Participant{
		ID:             uuid.NewString(),
		ExternalUserID: "ext-" + name,
		Email:          name + "@example.com",
		DisplayName:    name,
		Handle:         name,
		Role:           role,
		IsAdmin:        admin,
		Status:         models.ParticipantActive,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func doAs(t *testing.T, app *fiber.App, p *models.Participant, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-User-ID", p.ExternalUserID)
	req.Header.Set("X-User-Email", p.Email)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]interface{}
	if len(raw) > 0 && json.Valid(raw) && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp.StatusCode, parsed
}

// A plain participant must reach every non-mentor surface registered after
// the mentor routes in the composed stack.
func TestParticipantSurfaceNotGatedByMentorRoutes(t *testing.T) {
	app, db := composedApp(t)
	participant := seedUser(t, db, "regular", models.RoleParticipant, false)
	author := seedUser(t, db, "peer", models.RoleParticipant, false)

	a := &models.Assignment{ID: uuid.NewString(), Day: 1, Title: "Drill", Points: 10}
	require.NoError(t, db.Create(a).Error)
	sub := &models.Submission{
		ID:            uuid.NewString(),
		ParticipantID: author.ID,
		AssignmentID:  a.ID,
		ArtifactURL:   "https://github.com/peer/artifact",
		Status:        models.SubmissionSubmitted,
	}
	require.NoError(t, db.Create(sub).Error)
	review := &models.PeerReview{
		ID:           uuid.NewString(),
		SubmissionID: sub.ID,
		ReviewerID:   participant.ID,
		Status:       models.PeerReviewPending,
	}
	require.NoError(t, db.Create(review).Error)

	status, _ := doAs(t, app, participant, "GET", "/api/leaderboard", "")
	assert.Equal(t, fiber.StatusOK, status, "leaderboard")

	status, _ = doAs(t, app, participant, "GET", "/api/comments?submission_id="+sub.ID, "")
	assert.Equal(t, fiber.StatusOK, status, "comments")

	status, _ = doAs(t, app, participant, "GET", "/api/peer-review/mine", "")
	assert.Equal(t, fiber.StatusOK, status, "peer review queue")

	status, _ = doAs(t, app, participant, "GET", "/api/analytics", "")
	assert.Equal(t, fiber.StatusOK, status, "analytics")

	status, _ = doAs(t, app, participant, "GET", "/api/intel", "")
	assert.Equal(t, fiber.StatusOK, status, "intel list")

	status, _ = doAs(t, app, participant, "GET", "/api/achievements", "")
	assert.Equal(t, fiber.StatusOK, status, "achievements")

	body := fmt.Sprintf(`{"action":"submit","review_id":%q,"rating":4,"feedback":"nice"}`, review.ID)
	status, resp := doAs(t, app, participant, "POST", "/api/peer-review", body)
	require.Equal(t, fiber.StatusOK, status, "peer review submit: %v", resp)

	var saved models.PeerReview
	require.NoError(t, db.Where("id = ?", review.ID).First(&saved).Error)
	assert.Equal(t, models.PeerReviewCompleted, saved.Status)
}

// The mentor and admin routes themselves stay gated.
func TestMentorAndAdminRoutesStayGated(t *testing.T) {
	app, db := composedApp(t)
	participant := seedUser(t, db, "plain", models.RoleParticipant, false)
	mentor := seedUser(t, db, "mentor", models.RoleMentor, false)

	a := &models.Assignment{ID: uuid.NewString(), Day: 1, Title: "Drill", Points: 10}
	require.NoError(t, db.Create(a).Error)
	sub := &models.Submission{
		ID:            uuid.NewString(),
		ParticipantID: participant.ID,
		AssignmentID:  a.ID,
		ArtifactURL:   "https://github.com/plain/artifact",
		Status:        models.SubmissionSubmitted,
	}
	require.NoError(t, db.Create(sub).Error)

	reviewBody := fmt.Sprintf(`{"submission_id":%q,"status":"approved","rating":5}`, sub.ID)
	status, _ := doAs(t, app, participant, "POST", "/api/review", reviewBody)
	assert.Equal(t, fiber.StatusForbidden, status, "participant must not review")

	status, _ = doAs(t, app, mentor, "POST", "/api/review", reviewBody)
	assert.Equal(t, fiber.StatusOK, status, "mentor review")

	status, _ = doAs(t, app, participant, "GET", "/api/export/submissions", "")
	assert.Equal(t, fiber.StatusForbidden, status, "export is admin only")

	status, _ = doAs(t, app, mentor, "GET", "/api/export/submissions", "")
	assert.Equal(t, fiber.StatusForbidden, status, "mentor is not admin")

	intelBody := `{"day":1,"title":"Drop","release_at":"2030-01-01T00:00:00Z"}`
	status, _ = doAs(t, app, participant, "POST", "/api/intel", intelBody)
	assert.Equal(t, fiber.StatusForbidden, status, "intel create is admin only")
}

func TestUnregisteredSubjectGetsRegisterHint(t *testing.T) {
	app, _ := composedApp(t)
	ghost := &models.Participant{ExternalUserID: "ext-ghost", Email: "ghost@example.com"}

	status, resp := doAs(t, app, ghost, "GET", "/api/leaderboard", "")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Contains(t, resp["error"], "/api/register")
}
