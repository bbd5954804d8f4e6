// Package config loads relay settings from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds relay runtime settings.
type Config struct {
	Port           string
	DatabaseDriver string // sqlite, postgres or mysql
	DatabaseDSN    string
	Env            string
	LogLevel       string

	ReapInterval    time.Duration
	SessionLifetime time.Duration

	MaxParticipantsLimit int
	MaxMessageTTLSeconds int

	RatePerSecond int
	RateBurst     int
}

const (
	defaultPort            = "8080"
	defaultDriver          = "sqlite"
	defaultSQLiteDSN       = "file:burna.db?_foreign_keys=on"
	defaultEnv             = "dev"
	defaultReapInterval    = 30 * time.Second
	defaultSessionLifetime = 24 * time.Hour
	defaultMaxParticipants = 50
	defaultMaxTTLSeconds   = 7 * 24 * 60 * 60
	defaultRatePerSecond   = 20
	defaultRateBurst       = 40
)

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// getint returns def when key is unset, unparsable or not positive.
func getint(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// getduration accepts Go durations ("30s", "24h"); invalid or non-positive
// values fall back to def.
func getduration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Load reads the relay configuration from the environment.
func Load() Config {
	driver := getenv("DATABASE_DRIVER", defaultDriver)
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" && driver == defaultDriver {
		dsn = defaultSQLiteDSN
	}
	return Config{
		Port:                 getenv("RELAY_PORT", defaultPort),
		DatabaseDriver:       driver,
		DatabaseDSN:          dsn,
		Env:                  getenv("APP_ENV", defaultEnv),
		LogLevel:             os.Getenv("LOG_LEVEL"),
		ReapInterval:         getduration("REAP_INTERVAL", defaultReapInterval),
		SessionLifetime:      getduration("SESSION_LIFETIME", defaultSessionLifetime),
		MaxParticipantsLimit: getint("MAX_PARTICIPANTS_LIMIT", defaultMaxParticipants),
		MaxMessageTTLSeconds: getint("MAX_MESSAGE_TTL_SECONDS", defaultMaxTTLSeconds),
		RatePerSecond:        getint("RATE_LIMIT_PER_SECOND", defaultRatePerSecond),
		RateBurst:            getint("RATE_LIMIT_BURST", defaultRateBurst),
	}
}

// Validate rejects configurations the relay cannot start with.
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("RELAY_PORT is required")
	}
	switch cfg.DatabaseDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return errors.New("DATABASE_DRIVER must be sqlite, postgres or mysql")
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required for " + cfg.DatabaseDriver)
	}
	if cfg.ReapInterval <= 0 || cfg.SessionLifetime <= 0 {
		return errors.New("REAP_INTERVAL and SESSION_LIFETIME must be positive")
	}
	return nil
}
