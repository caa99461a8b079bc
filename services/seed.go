package services

import (
	"log"

	"academy-dashboard/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeedAchievementCatalog inserts any catalog entries missing from the
// database. Existing rows are left untouched so operators can tweak
// names and descriptions without boot reverting them.
func SeedAchievementCatalog(db *gorm.DB) error {
	seeded := 0
	for _, entry := range models.AchievementCatalog {
		var count int64
		if err := db.Model(&models.Achievement{}).Where("code = ?", entry.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		entry.ID = uuid.NewString()
		if err := db.Create(&entry).Error; err != nil {
			return err
		}
		seeded++
	}

	if seeded > 0 {
		log.Printf("✅ Seeded %d achievement catalog entries", seeded)
	}
	return nil
}
