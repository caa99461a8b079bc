package services

import (
	"fmt"
	"sync"
	"testing"

	"academy-dashboard/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB gives each test an isolated in-memory database with the schema
// migrated and the achievement catalog seeded.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
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
	require.NoError(t, SeedAchievementCatalog(db))
	return db
}

// captureNotifier records every message for assertions.
type captureNotifier struct {
	mu       sync.Mutex
	messages []*Message
}

func (n *captureNotifier) SendMessages(messages ...*Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, messages...)
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func makeParticipant(t *testing.T, db *gorm.DB, name string) *models.Participant {
	t.Helper()
	p := &models.Participant{
		ID:             uuid.NewString(),
		ExternalUserID: uuid.NewString(),
		Email:          name + "@example.com",
		DisplayName:    name,
		Handle:         name,
		Role:           models.RoleParticipant,
		Status:         models.ParticipantActive,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func makeAssignment(t *testing.T, db *gorm.DB, day, points int) *models.Assignment {
	t.Helper()
	a := &models.Assignment{
		ID:     uuid.NewString(),
		Day:    day,
		Title:  fmt.Sprintf("Day %d drill", day),
		Points: points,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

func makeSubmission(t *testing.T, db *gorm.DB, participantID, assignmentID, status string) *models.Submission {
	t.Helper()
	s := &models.Submission{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		AssignmentID:  assignmentID,
		ArtifactURL:   "https://github.com/example/artifact",
		Status:        status,
	}
	require.NoError(t, db.Create(s).Error)
	return s
}
