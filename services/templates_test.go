package services

import (
	"testing"

	"academy-dashboard/models"

	"github.com/stretchr/testify/assert"
)

func testRecipient() *models.Participant {
	return &models.Participant{
		Email:       "ada@example.com",
		DisplayName: "Ada",
		Stream:      "engineering",
	}
}

func TestWelcomeMessage(t *testing.T) {
	msg := WelcomeMessage(testRecipient())
	assert.Equal(t, "ada@example.com", msg.ToEmail)
	assert.Equal(t, "Ada", msg.ToName)
	assert.Contains(t, msg.Text, "the Engineering stream")
	assert.Contains(t, msg.Text, models.ClearanceRecruit)
	assert.NotEmpty(t, msg.HTML)
}

func TestWelcomeMessageWithoutStream(t *testing.T) {
	p := testRecipient()
	p.Stream = ""
	msg := WelcomeMessage(p)
	assert.Contains(t, msg.Text, "the academy")
}

func TestSubmissionReviewedMessage(t *testing.T) {
	a := &models.Assignment{Day: 3, Title: "Prompt drills"}

	msg := SubmissionReviewedMessage(testRecipient(), a, models.SubmissionApproved, "ship it")
	assert.Equal(t, "Day 3 review: Approved", msg.Subject)
	assert.Contains(t, msg.Text, `"Prompt drills"`)
	assert.Contains(t, msg.Text, "ship it")

	// No feedback block when the mentor left none.
	bare := SubmissionReviewedMessage(testRecipient(), a, models.SubmissionReviewed, "")
	assert.NotContains(t, bare.Text, "Mentor feedback")
}

func TestPeerReviewAssignedMessage(t *testing.T) {
	msg := PeerReviewAssignedMessage(testRecipient(), 4)
	assert.Contains(t, msg.Text, "day-4")
	assert.Contains(t, msg.Text, "2 bonus points")
}

func TestAchievementMessage(t *testing.T) {
	ach := &models.Achievement{Name: "Momentum", Description: "Kept a streak", Kind: models.KindRecognition}
	msg := AchievementMessage(testRecipient(), ach)
	assert.Contains(t, msg.Subject, "recognition")
	assert.Contains(t, msg.Subject, `"Momentum"`)

	ach.Kind = models.KindAchievement
	msg = AchievementMessage(testRecipient(), ach)
	assert.Contains(t, msg.Subject, "achievement")
}

func TestMasteryPromotionMessage(t *testing.T) {
	msg := MasteryPromotionMessage(testRecipient(), 3, models.ClearanceFieldReady)
	assert.Equal(t, "Clearance upgraded: FIELD_READY", msg.Subject)
	assert.Contains(t, msg.Text, "mastery level 3")
}

func TestIntelDropMessage(t *testing.T) {
	drop := &models.IntelDrop{Day: 2, Title: "Toolchain briefing", LinkURL: "https://example.com/brief"}
	msg := IntelDropMessage(testRecipient(), drop)
	assert.Equal(t, "Intel drop: Toolchain briefing", msg.Subject)
	assert.Contains(t, msg.Text, "https://example.com/brief")
}
