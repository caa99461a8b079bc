package services

import (
	"fmt"

	"academy-dashboard/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Template functions are pure: (recipient, contextual data) → message.
// Rendering never touches the database.

var titleCaser = cases.Title(language.English)

func streamLabel(p *models.Participant) string {
	if p.Stream == "" {
		return "the academy"
	}
	return "the " + titleCaser.String(p.Stream) + " stream"
}

func WelcomeMessage(p *models.Participant) *Message {
	return &Message{
		ToEmail: p.Email,
		ToName:  p.DisplayName,
		Subject: "Welcome to the AI Academy",
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour registration is confirmed — you're in %s.\nYour clearance starts at %s. Complete your day-1 assignment to get moving.\n",
			p.DisplayName, streamLabel(p), models.ClearanceRecruit),
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Your registration is confirmed — you're in %s.</p><p>Your clearance starts at <strong>%s</strong>. Complete your day-1 assignment to get moving.</p>",
			p.DisplayName, streamLabel(p), models.ClearanceRecruit),
	}
}

func SubmissionReviewedMessage(p *models.Participant, a *models.Assignment, status, feedback string) *Message {
	subject := fmt.Sprintf("Day %d review: %s", a.Day, titleCaser.String(status))
	body := fmt.Sprintf("Hi %s,\n\nYour submission for %q (day %d) was marked %s.", p.DisplayName, a.Title, a.Day, status)
	if feedback != "" {
		body += "\n\nMentor feedback:\n" + feedback
	}
	return &Message{
		ToEmail: p.Email,
		ToName:  p.DisplayName,
		Subject: subject,
		Text:    body + "\n",
		HTML:    fmt.Sprintf("<p>Hi %s,</p><p>Your submission for <em>%s</em> (day %d) was marked <strong>%s</strong>.</p><p>%s</p>", p.DisplayName, a.Title, a.Day, status, feedback),
	}
}

func PeerReviewAssignedMessage(reviewer *models.Participant, day int) *Message {
	return &Message{
		ToEmail: reviewer.Email,
		ToName:  reviewer.DisplayName,
		Subject: "You have a peer review to complete",
		Text: fmt.Sprintf(
			"Hi %s,\n\nYou've been assigned an anonymous peer review for a day-%d submission.\nCompleting it earns you %d bonus points.\n",
			reviewer.DisplayName, day, models.PeerReviewBonusPoints),
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>You've been assigned an anonymous peer review for a day-%d submission.</p><p>Completing it earns you <strong>%d bonus points</strong>.</p>",
			reviewer.DisplayName, day, models.PeerReviewBonusPoints),
	}
}

func AchievementMessage(p *models.Participant, a *models.Achievement) *Message {
	noun := "achievement"
	if a.Kind == models.KindRecognition {
		noun = "recognition"
	}
	return &Message{
		ToEmail: p.Email,
		ToName:  p.DisplayName,
		Subject: fmt.Sprintf("You earned the %q %s", a.Name, noun),
		Text:    fmt.Sprintf("Hi %s,\n\n%s — %s\n", p.DisplayName, a.Name, a.Description),
		HTML:    fmt.Sprintf("<p>Hi %s,</p><p>🎖️ <strong>%s</strong> — %s</p>", p.DisplayName, a.Name, a.Description),
	}
}

func MasteryPromotionMessage(p *models.Participant, level int, clearance string) *Message {
	return &Message{
		ToEmail: p.Email,
		ToName:  p.DisplayName,
		Subject: fmt.Sprintf("Clearance upgraded: %s", clearance),
		Text:    fmt.Sprintf("Hi %s,\n\nYou reached mastery level %d. New clearance: %s.\n", p.DisplayName, level, clearance),
		HTML:    fmt.Sprintf("<p>Hi %s,</p><p>You reached mastery level %d. New clearance: <strong>%s</strong>.</p>", p.DisplayName, level, clearance),
	}
}

func DeadlineReminderMessage(p *models.Participant, a *models.Assignment) *Message {
	return &Message{
		ToEmail: p.Email,
		ToName:  p.DisplayName,
		Subject: fmt.Sprintf("Reminder: day %d assignment is due", a.Day),
		Text:    fmt.Sprintf("Hi %s,\n\nYou haven't submitted %q (day %d) yet. The deadline is coming up.\n", p.DisplayName, a.Title, a.Day),
		HTML:    fmt.Sprintf("<p>Hi %s,</p><p>You haven't submitted <em>%s</em> (day %d) yet. The deadline is coming up.</p>", p.DisplayName, a.Title, a.Day),
	}
}

func IntelDropMessage(p *models.Participant, d *models.IntelDrop) *Message {
	return &Message{
		ToEmail: p.Email,
		ToName:  p.DisplayName,
		Subject: fmt.Sprintf("Intel drop: %s", d.Title),
		Text:    fmt.Sprintf("Hi %s,\n\nNew intel for day %d: %s\n%s\n", p.DisplayName, d.Day, d.Title, d.LinkURL),
		HTML:    fmt.Sprintf("<p>Hi %s,</p><p>📡 New intel for day %d: <strong>%s</strong></p><p><a href=%q>Open it</a></p>", p.DisplayName, d.Day, d.Title, d.LinkURL),
	}
}
