package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strconv"
	"time"

	"academy-dashboard/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ensureLeaderboardEntry creates the aggregate row if missing. Shared by the
// services that credit points.
func ensureLeaderboardEntry(tx *gorm.DB, participantID string) error {
	var count int64
	if err := tx.Model(&models.LeaderboardEntry{}).
		Where("participant_id = ?", participantID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	entry := models.LeaderboardEntry{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
	}
	err := tx.Create(&entry).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

// LeaderboardService recomputes and serves the scoring aggregates.
type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

// Recompute rebuilds points, streaks and ranks for every participant. Runs
// as part of the mastery cron pass; safe to re-run at any time.
func (s *LeaderboardService) Recompute(ctx context.Context) error {
	var participants []models.Participant
	if err := s.DB.Where("status = ?", models.ParticipantActive).Find(&participants).Error; err != nil {
		return err
	}

	type scored struct {
		entry  *models.LeaderboardEntry
		points int64
	}
	scoredEntries := make([]scored, 0, len(participants))

	for i := range participants {
		if err := ctx.Err(); err != nil {
			log.Printf("⏹️ leaderboard recompute stopped early (%d/%d): %v", i, len(participants), err)
			return err
		}
		p := &participants[i]

		if err := ensureLeaderboardEntry(s.DB, p.ID); err != nil {
			return err
		}
		var entry models.LeaderboardEntry
		if err := s.DB.Where("participant_id = ?", p.ID).First(&entry).Error; err != nil {
			return err
		}

		var base int64
		if err := s.DB.Model(&models.Submission{}).
			Select("COALESCE(SUM(assignments.points), 0)").
			Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
			Where("submissions.participant_id = ? AND submissions.status = ?", p.ID, models.SubmissionApproved).
			Scan(&base).Error; err != nil {
			return err
		}

		current, longest, err := s.streaks(p.ID)
		if err != nil {
			return err
		}

		entry.TotalPoints = base + entry.BonusPoints
		entry.CurrentStreak = current
		entry.LongestStreak = longest
		scoredEntries = append(scoredEntries, scored{entry: &entry, points: entry.TotalPoints})
	}

	// Dense ranking, top first. Ties share a rank.
	sort.SliceStable(scoredEntries, func(i, j int) bool {
		return scoredEntries[i].points > scoredEntries[j].points
	})
	rank := 0
	var prev int64 = -1
	for _, se := range scoredEntries {
		if se.points != prev {
			rank++
			prev = se.points
		}
		se.entry.Rank = rank
		if err := s.DB.Save(se.entry).Error; err != nil {
			return err
		}
	}

	log.Printf("🏆 leaderboard recomputed for %d participants", len(scoredEntries))
	return nil
}

// streaks derives current and longest consecutive-day submission streaks
// from submission timestamps. The current streak tolerates "today" not yet
// having a submission.
func (s *LeaderboardService) streaks(participantID string) (int, int, error) {
	var subs []models.Submission
	if err := s.DB.Where("participant_id = ?", participantID).
		Order("created_at ASC").
		Find(&subs).Error; err != nil {
		return 0, 0, err
	}
	if len(subs) == 0 {
		return 0, 0, nil
	}

	dayKey := func(t time.Time) time.Time {
		y, m, d := t.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	seen := map[time.Time]bool{}
	var days []time.Time
	for _, sub := range subs {
		k := dayKey(sub.CreatedAt)
		if !seen[k] {
			seen[k] = true
			days = append(days, k)
		}
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	today := dayKey(time.Now())
	last := days[len(days)-1]
	current := 0
	if last.Equal(today) || last.Equal(today.Add(-24*time.Hour)) {
		current = run
	}
	return current, longest, nil
}

// --- Handlers ---

// HandleLeaderboard returns the top of the board as a public projection:
// no emails, no internal flags.
func (s *LeaderboardService) HandleLeaderboard(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "25"))
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	var entries []models.LeaderboardEntry
	if err := s.DB.Preload("Participant").
		Where("rank > 0").
		Order("rank ASC, total_points DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return failJSON(c, err)
	}

	out := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		row := fiber.Map{
			"rank":           e.Rank,
			"total_points":   e.TotalPoints,
			"bonus_points":   e.BonusPoints,
			"current_streak": e.CurrentStreak,
			"longest_streak": e.LongestStreak,
		}
		if e.Participant != nil {
			row["display_name"] = e.Participant.DisplayName
			row["handle"] = e.Participant.Handle
			row["team"] = e.Participant.Team
			row["avatar_url"] = e.Participant.AvatarURL
		}
		out = append(out, row)
	}
	return c.JSON(out)
}

// HandleAnalytics returns cohort-wide counters for the dashboard.
func (s *LeaderboardService) HandleAnalytics(c *fiber.Ctx) error {
	var totalParticipants, activeParticipants int64
	if err := s.DB.Model(&models.Participant{}).Count(&totalParticipants).Error; err != nil {
		return failJSON(c, err)
	}
	if err := s.DB.Model(&models.Participant{}).Where("status = ?", models.ParticipantActive).Count(&activeParticipants).Error; err != nil {
		return failJSON(c, err)
	}

	statusCounts := map[string]int64{}
	for _, status := range []string{
		models.SubmissionSubmitted, models.SubmissionReviewed,
		models.SubmissionNeedsRevision, models.SubmissionApproved,
	} {
		var n int64
		if err := s.DB.Model(&models.Submission{}).Where("status = ?", status).Count(&n).Error; err != nil {
			return failJSON(c, err)
		}
		statusCounts[status] = n
	}

	var reviewsPending, reviewsCompleted int64
	if err := s.DB.Model(&models.PeerReview{}).Where("status = ?", models.PeerReviewPending).Count(&reviewsPending).Error; err != nil {
		return failJSON(c, err)
	}
	if err := s.DB.Model(&models.PeerReview{}).Where("status = ?", models.PeerReviewCompleted).Count(&reviewsCompleted).Error; err != nil {
		return failJSON(c, err)
	}

	var awards int64
	if err := s.DB.Model(&models.ParticipantAchievement{}).Count(&awards).Error; err != nil {
		return failJSON(c, err)
	}

	since := time.Now().Add(-24 * time.Hour)
	var submissionsToday int64
	if err := s.DB.Model(&models.Submission{}).Where("created_at >= ?", since).Count(&submissionsToday).Error; err != nil {
		return failJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"participants": fiber.Map{
			"total":  totalParticipants,
			"active": activeParticipants,
		},
		"submissions": fiber.Map{
			"by_status": statusCounts,
			"last_24h":  submissionsToday,
		},
		"peer_reviews": fiber.Map{
			"pending":   reviewsPending,
			"completed": reviewsCompleted,
		},
		"achievements_awarded": awards,
	})
}
