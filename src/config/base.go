package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/stake-plus/gemtracker/src/data"
	"gorm.io/gorm"
)

// Base contains common configuration fields
type Base struct {
	Token    string
	GuildID  string
	RedisURL string
}

// LoadBase refreshes the settings cache and loads the fields every module needs.
func LoadBase(db *gorm.DB) Base {
	if err := data.LoadSettings(db); err != nil {
		log.Printf("config: settings table unavailable, using environment only: %v", err)
	}

	return Base{
		Token:    GetSetting("discord_token", "DISCORD_TOKEN", ""),
		GuildID:  GetSetting("guild_id", "GUILD_ID", ""),
		RedisURL: GetSetting("redis_url", "REDIS_URL", ""),
	}
}

// GetSetting retrieves a setting with env fallback
func GetSetting(name, envKey, defaultValue string) string {
	val := strings.TrimSpace(data.GetSetting(name))
	if val == "" {
		val = strings.TrimSpace(os.Getenv(envKey))
	}
	if val == "" {
		val = defaultValue
	}
	return val
}

func getBoolSetting(name, envKey string, defaultValue bool) bool {
	raw := GetSetting(name, envKey, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config: %s=%q is not a boolean, using %t", name, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getIntSetting(name, envKey string, defaultValue int) int {
	raw := GetSetting(name, envKey, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("config: %s=%q is not a positive integer, using %d", name, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getSecondsSetting(name, envKey string, defaultValue int) time.Duration {
	return time.Duration(getIntSetting(name, envKey, defaultValue)) * time.Second
}
