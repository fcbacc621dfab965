package data

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting is one row of runtime configuration. Inactive rows are ignored.
type Setting struct {
	ID     uint   `gorm:"primaryKey"`
	Name   string `gorm:"size:64;not null;uniqueIndex"`
	Value  string `gorm:"type:text;not null"`
	Active uint8  `gorm:"not null"`
}

// TableName implements the gorm tabler interface.
func (Setting) TableName() string { return "settings" }

var (
	settingsCache map[string]string
	settingsMu    sync.RWMutex
)

// LoadSettings loads all active settings from the database into cache
func LoadSettings(db *gorm.DB) error {
	if db == nil {
		return errors.New("no database connection")
	}
	var settings []Setting
	if err := db.Where("active = ?", 1).Find(&settings).Error; err != nil {
		return err
	}

	settingsMu.Lock()
	defer settingsMu.Unlock()

	settingsCache = make(map[string]string, len(settings))
	for _, s := range settings {
		settingsCache[s.Name] = s.Value
	}

	return nil
}

// GetSetting retrieves a setting value from cache (call LoadSettings first)
func GetSetting(name string) string {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settingsCache[name]
}

// SetSetting upserts an active setting and refreshes the cache entry.
func SetSetting(ctx context.Context, db *gorm.DB, name, value string) error {
	row := Setting{Name: name, Value: value, Active: 1}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "active"}),
	}).Create(&row).Error
	if err != nil {
		return err
	}

	settingsMu.Lock()
	defer settingsMu.Unlock()
	if settingsCache == nil {
		settingsCache = make(map[string]string)
	}
	settingsCache[name] = value
	return nil
}
