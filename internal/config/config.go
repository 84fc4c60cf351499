package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/focusnest/progression-service/internal/platform/auth"
	"github.com/focusnest/progression-service/internal/platform/envconfig"
)

// Config encapsulates the runtime configuration for the progression service.
type Config struct {
	Port         string `validate:"required,numeric"`
	GCPProjectID string
	DataStore    DataStore
	Auth         AuthConfig
	Firestore    FirestoreConfig
	Redis        RedisConfig
	Progression  ProgressionConfig
	Notify       NotifyConfig
}

// DataStore enumerates supported persistence backends.
type DataStore string

const (
	// DataStoreMemory keeps workouts and progression in-memory (useful for local development/testing).
	DataStoreMemory DataStore = "memory"
	// DataStoreFirestore stores workouts and progression in Google Cloud Firestore.
	DataStoreFirestore DataStore = "firestore"
	// DataStoreRedis keeps workouts in memory and progression state in Redis.
	DataStoreRedis DataStore = "redis"
)

// AuthConfig stores authentication middleware setup.
type AuthConfig struct {
	Mode     auth.Mode
	JWKSURL  string `validate:"omitempty,url"`
	Audience string
	Issuer   string
}

// FirestoreConfig tailors Firestore client behavior.
type FirestoreConfig struct {
	EmulatorHost string
	Database     string
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `validate:"omitempty,hostname_port"`
	Password string
	DB       int `validate:"gte=0,lte=15"`
}

// ProgressionConfig tunes the engine.
type ProgressionConfig struct {
	Timezone         string
	Location         *time.Location `validate:"-"`
	ChallengeHistory int            `validate:"gte=0"`
}

// NotifyConfig tunes the notification dedup guard.
type NotifyConfig struct {
	Cooldown      time.Duration `validate:"gt=0"`
	RecencyWindow time.Duration `validate:"gt=0"`
	HistorySize   int           `validate:"gt=0,lte=500"`
}

// Load reads environment variables (and a local .env file when present) into Config with validation.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Port:         envconfig.Get("PORT", "8080"),
		GCPProjectID: envconfig.Get("GCP_PROJECT_ID", ""),
		DataStore:    DataStore(strings.ToLower(envconfig.Get("DATASTORE", string(DataStoreMemory)))),
		Auth: AuthConfig{
			Mode:     auth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(auth.ModeNoop)))),
			JWKSURL:  envconfig.Get("CLERK_JWKS_URL", ""),
			Audience: envconfig.Get("CLERK_AUDIENCE", ""),
			Issuer:   envconfig.Get("CLERK_ISSUER", ""),
		},
		Firestore: FirestoreConfig{
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
			Database:     envconfig.Get("FIRESTORE_DATABASE", ""),
		},
		Redis: RedisConfig{
			Addr:     envconfig.Get("REDIS_ADDR", ""),
			Password: envconfig.Get("REDIS_PASSWORD", ""),
		},
		Progression: ProgressionConfig{
			Timezone: envconfig.Get("PROGRESSION_TIMEZONE", "UTC"),
		},
	}

	var err error
	if cfg.Redis.DB, err = envconfig.GetInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.Progression.ChallengeHistory, err = envconfig.GetInt("CHALLENGE_HISTORY_SIZE", 30); err != nil {
		return Config{}, err
	}
	if cfg.Notify.Cooldown, err = envconfig.GetDuration("NOTIFY_COOLDOWN", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Notify.RecencyWindow, err = envconfig.GetDuration("NOTIFY_RECENCY_WINDOW", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Notify.HistorySize, err = envconfig.GetInt("NOTIFY_HISTORY_SIZE", 20); err != nil {
		return Config{}, err
	}

	if cfg.Progression.Location, err = time.LoadLocation(cfg.Progression.Timezone); err != nil {
		return Config{}, fmt.Errorf("PROGRESSION_TIMEZONE: %w", err)
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if err := envconfig.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch cfg.DataStore {
	case DataStoreMemory:
		// no-op
	case DataStoreFirestore:
		if cfg.GCPProjectID == "" {
			return fmt.Errorf("gcp project id required when datastore=firestore")
		}
	case DataStoreRedis:
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when datastore=redis")
		}
	default:
		return fmt.Errorf("unsupported datastore: %s", cfg.DataStore)
	}

	switch cfg.Auth.Mode {
	case auth.ModeClerk:
		if cfg.Auth.JWKSURL == "" {
			return fmt.Errorf("CLERK_JWKS_URL is required when AUTH_MODE=clerk")
		}
	case auth.ModeNoop:
		// no-op
	default:
		return fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}

	return nil
}
