package data

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/stake-plus/gemtracker/src/shared/tracking"
)

// Migrate creates or updates every table the bot owns.
func Migrate(db *gorm.DB) error {
	models := append([]interface{}{&Setting{}}, tracking.Models()...)
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
