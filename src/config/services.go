package config

import (
	"strings"
	"time"

	"github.com/stake-plus/gemtracker/src/shared/catalog"
	"gorm.io/gorm"
)

// TrackingConfig holds the Discord watch-list module configuration
type TrackingConfig struct {
	Base
	CatalogURL        string
	CatalogCacheTTL   time.Duration
	PollWatchInterval time.Duration
	PollDuration      time.Duration
	TrackRoleID       string
	LeaseRequired     bool
	Enabled           bool
}

// LoadTrackingConfig loads the watch-list module configuration
func LoadTrackingConfig(db *gorm.DB) TrackingConfig {
	base := LoadBase(db)

	return TrackingConfig{
		Base:              base,
		CatalogURL:        GetSetting("catalog_url", "CATALOG_URL", catalog.DefaultURL),
		CatalogCacheTTL:   getSecondsSetting("catalog_cache_seconds", "CATALOG_CACHE_SECONDS", 60),
		PollWatchInterval: getSecondsSetting("poll_watch_interval_seconds", "POLL_WATCH_INTERVAL_SECONDS", 5),
		PollDuration:      time.Duration(getIntSetting("poll_duration_hours", "POLL_DURATION_HOURS", 1)) * time.Hour,
		TrackRoleID:       GetSetting("track_role_id", "TRACK_ROLE_ID", ""),
		LeaseRequired:     getBoolSetting("reconcile_lease_required", "RECONCILE_LEASE_REQUIRED", false),
		Enabled:           getBoolSetting("enable_tracking", "ENABLE_TRACKING", true),
	}
}

// APIConfig holds the read-only HTTP API configuration
type APIConfig struct {
	Listen         string
	JWTSecret      string
	AllowedOrigins []string
	Enabled        bool
}

// LoadAPIConfig loads the HTTP API configuration. Call after LoadBase so the settings
// cache is warm.
func LoadAPIConfig() APIConfig {
	var origins []string
	for _, o := range strings.Split(GetSetting("api_allowed_origins", "API_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return APIConfig{
		Listen:         GetSetting("api_listen", "API_LISTEN", ":8080"),
		JWTSecret:      GetSetting("api_jwt_secret", "API_JWT_SECRET", ""),
		AllowedOrigins: origins,
		Enabled:        getBoolSetting("enable_api", "ENABLE_API", false),
	}
}
