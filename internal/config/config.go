// Package config loads the scraper settings from the environment.
//
// A .env file in the working directory and ../.env.local are read first when
// present; real environment variables always win over both.
package config

import (
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"

	"github.com/pfrederiksen/rota-da-festa/internal/crawler"
	"github.com/pfrederiksen/rota-da-festa/internal/geocode"
	"github.com/pfrederiksen/rota-da-festa/internal/loader"
	"github.com/pfrederiksen/rota-da-festa/internal/logger"
	"github.com/pfrederiksen/rota-da-festa/internal/storage"
)

// DotEnvFiles are loaded in order; earlier files win
var DotEnvFiles = []string{".env", "../.env.local"}

// Config holds every runtime setting
type Config struct {
	Store       string
	DatabaseURL string
	DataDir     string
	LogLevel    logger.Level

	GeocoderURL       string
	GeocoderUserAgent string
	GeocodeInterval   time.Duration

	LoadRetries   int // retries after the first attempt
	BackoffStep   time.Duration
	DetailDelay   time.Duration
	LookaheadDays int
	MaxEditions   int
	Headless      bool

	PurgeWeekday time.Weekday
	CatalogFile  string

	TelegramToken  string
	TelegramChatID int64
}

// Load reads the dotenv files and then the environment
func Load() (*Config, error) {
	for _, f := range DotEnvFiles {
		// godotenv.Load never overrides variables that are already set
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("ignoring unreadable env file", logger.Fields{"file": f, "error": err.Error()})
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Store:             getEnv("ROTA_STORE", ""),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DataDir:           getEnv("ROTA_DATA_DIR", storage.DefaultDataDir),
		LogLevel:          logger.ParseLevel(getEnv("ROTA_LOG_LEVEL", "info")),
		GeocoderURL:       getEnv("ROTA_GEOCODER_URL", geocode.DefaultBaseURL),
		GeocoderUserAgent: getEnv("ROTA_GEOCODER_USER_AGENT", geocode.DefaultUserAgent),
		CatalogFile:       getEnv("ROTA_CATALOG_FILE", ""),
		TelegramToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
	}

	var err error
	if cfg.GeocodeInterval, err = getEnvAsDuration("ROTA_GEOCODE_INTERVAL", geocode.DefaultInterval); err != nil {
		return nil, err
	}
	if cfg.LoadRetries, err = getEnvAsInt("ROTA_LOAD_RETRIES", loader.DefaultRetryPolicy().MaxAttempts-1); err != nil {
		return nil, err
	}
	if cfg.BackoffStep, err = getEnvAsDuration("ROTA_BACKOFF_STEP", loader.DefaultBackoffStep); err != nil {
		return nil, err
	}
	if cfg.DetailDelay, err = getEnvAsDuration("ROTA_DETAIL_DELAY", crawler.DefaultDetailDelay); err != nil {
		return nil, err
	}
	if cfg.LookaheadDays, err = getEnvAsInt("ROTA_LOOKAHEAD_DAYS", crawler.DefaultLookaheadDays); err != nil {
		return nil, err
	}
	if cfg.MaxEditions, err = getEnvAsInt("ROTA_MAX_EDITIONS", crawler.DefaultMaxEditions); err != nil {
		return nil, err
	}
	if cfg.Headless, err = getEnvAsBool("ROTA_HEADLESS", true); err != nil {
		return nil, err
	}
	if cfg.PurgeWeekday, err = ParseWeekday(getEnv("ROTA_PURGE_WEEKDAY", "monday")); err != nil {
		return nil, errors.Wrap(err, "ROTA_PURGE_WEEKDAY")
	}
	if raw := getEnv("TELEGRAM_CHAT_ID", ""); raw != "" {
		if cfg.TelegramChatID, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err != nil {
			return nil, errors.Wrapf(err, "TELEGRAM_CHAT_ID %q", raw)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	if c.LoadRetries < 0 {
		return errors.Newf("ROTA_LOAD_RETRIES must be >= 0, got %d", c.LoadRetries)
	}
	if c.LookaheadDays < 1 {
		return errors.Newf("ROTA_LOOKAHEAD_DAYS must be >= 1, got %d", c.LookaheadDays)
	}
	if c.MaxEditions < 1 {
		return errors.Newf("ROTA_MAX_EDITIONS must be >= 1, got %d", c.MaxEditions)
	}
	switch strings.ToLower(c.Store) {
	case "", storage.BackendFile:
	case storage.BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("ROTA_STORE=postgres requires DATABASE_URL")
		}
	default:
		return errors.Newf("ROTA_STORE must be %q or %q, got %q", storage.BackendFile, storage.BackendPostgres, c.Store)
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		return errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return nil
}

// StorageOptions returns the store selection
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{Backend: c.Store, DataDir: c.DataDir, DatabaseURL: c.DatabaseURL}
}

// RetryPolicy returns the page-load retry policy: one attempt plus
// LoadRetries retries
func (c *Config) RetryPolicy() loader.RetryPolicy {
	return loader.RetryPolicy{MaxAttempts: c.LoadRetries + 1, Backoff: loader.LinearBackoff(c.BackoffStep)}
}

// TelegramEnabled reports whether notifications go to Telegram
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"domingo":   time.Sunday,
	"monday":    time.Monday,
	"segunda":   time.Monday,
	"tuesday":   time.Tuesday,
	"terca":     time.Tuesday,
	"terça":     time.Tuesday,
	"wednesday": time.Wednesday,
	"quarta":    time.Wednesday,
	"thursday":  time.Thursday,
	"quinta":    time.Thursday,
	"friday":    time.Friday,
	"sexta":     time.Friday,
	"saturday":  time.Saturday,
	"sabado":    time.Saturday,
	"sábado":    time.Saturday,
}

// ParseWeekday accepts English or Portuguese day names, or 0-6 with 0 = Sunday
func ParseWeekday(s string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "-feira")
	if d, ok := weekdays[v]; ok {
		return d, nil
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, errors.Newf("unknown weekday %q", s)
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "%s", key)
	}
	return out, nil
}

// getEnvAsDuration accepts Go durations ("2s", "500ms") or plain seconds
func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "%s", key)
	}
	if d < 0 {
		return 0, errors.Newf("%s must not be negative", key)
	}
	return d, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return fallback, nil
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, errors.Newf("%s: invalid boolean %q", key, value)
	}
}
