package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeLocal AuthMode = "local" // Local user database with sessions
)

type (
	Config struct {
		HTTP
		Global
		Database
		Metadata
		Import
		Tasks
		MetadataSync
		Auth
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Metadata struct {
		BaseURL       string
		LookupTimeout time.Duration
		CacheTTL      time.Duration
		RateInterval  time.Duration // Minimum interval between OpenLibrary calls
	}
	Import struct {
		LookupConcurrency int   // Parallel enrichment lookups per parse call
		MaxFileBytes      int64 // Upload size cap
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	MetadataSync struct {
		Enabled  bool
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Metadata client defaults
	v.SetDefault("metadata_base_url", "https://openlibrary.org")
	v.SetDefault("metadata_lookup_timeout", "10s")
	v.SetDefault("metadata_cache_ttl", "1h")
	v.SetDefault("metadata_rate_interval", "1s")

	// Import pipeline defaults
	v.SetDefault("import_lookup_concurrency", 4)
	v.SetDefault("import_max_file_bytes", 10<<20)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Metadata sync defaults
	v.SetDefault("metadata_sync_enabled", false)
	v.SetDefault("metadata_sync_schedule", "0 3 * * *") // Daily at 03:00

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_session_secret", "") // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Metadata: Metadata{
			BaseURL:       v.GetString("METADATA_BASE_URL"),
			LookupTimeout: v.GetDuration("METADATA_LOOKUP_TIMEOUT"),
			CacheTTL:      v.GetDuration("METADATA_CACHE_TTL"),
			RateInterval:  v.GetDuration("METADATA_RATE_INTERVAL"),
		},
		Import: Import{
			LookupConcurrency: v.GetInt("IMPORT_LOOKUP_CONCURRENCY"),
			MaxFileBytes:      v.GetInt64("IMPORT_MAX_FILE_BYTES"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		MetadataSync: MetadataSync{
			Enabled:  v.GetBool("METADATA_SYNC_ENABLED"),
			Schedule: v.GetString("METADATA_SYNC_SCHEDULE"),
		},
		Auth: Auth{
			Mode:            AuthMode(v.GetString("AUTH_MODE")),
			SessionSecret:   v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime: v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:      v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:   v.GetBool("AUTH_SECURE_COOKIES"),
		},
	}
}
