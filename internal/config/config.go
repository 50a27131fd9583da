// internal/config/config.go
//
// Runtime configuration, read from the environment (after godotenv has
// loaded any .env file in main). Every value has a default so the server
// starts with no configuration at all.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full server configuration.
type Config struct {
	Port     string
	LogLevel string
	AppEnv   string

	// Trivia source. ArchiveDSN, when set, selects the local SQLite archive
	// instead of the remote service.
	JServiceURL     string
	ArchiveDSN      string
	ArchiveSeedFile string
	HTTPTimeout     time.Duration

	// Board shape and candidate window.
	Categories      int
	CluesPerCat     int
	CategoryBatch   int
	CategoryOffsets int

	// Sessions. TokenTTL bounds the client token and cookie; it must outlive
	// SessionTTL so an idle session is reaped before its token expires.
	SessionTTL    time.Duration
	TokenTTL      time.Duration
	SessionSecret string
	ClientOrigin  string
}

// Production reports whether APP_ENV is "production".
func (c Config) Production() bool { return c.AppEnv == "production" }

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var errs []error
	c := Config{
		Port:            getEnv("PORT", "5175"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		AppEnv:          getEnv("APP_ENV", "development"),
		JServiceURL:     getEnv("JSERVICE_URL", "https://jservice.io/api"),
		ArchiveDSN:      os.Getenv("ARCHIVE_DSN"),
		ArchiveSeedFile: os.Getenv("ARCHIVE_SEED_FILE"),
		HTTPTimeout:     getDuration("HTTP_TIMEOUT", 10*time.Second, &errs),
		Categories:      getInt("NUM_CATEGORIES", 6, &errs),
		CluesPerCat:     getInt("NUM_CLUES_PER_CAT", 5, &errs),
		CategoryBatch:   getInt("CATEGORY_BATCH", 100, &errs),
		CategoryOffsets: getInt("CATEGORY_OFFSET_PAGES", 200, &errs),
		SessionTTL:      getDuration("SESSION_TTL", time.Hour, &errs),
		TokenTTL:        getDuration("TOKEN_TTL", 24*time.Hour, &errs),
		SessionSecret:   getEnv("SESSION_SECRET", "dev_secret_change_me"),
		ClientOrigin:    getEnv("CLIENT_ORIGIN", "http://localhost:5175"),
	}

	if c.Categories < 1 {
		errs = append(errs, fmt.Errorf("NUM_CATEGORIES must be positive, got %d", c.Categories))
	}
	if c.CluesPerCat < 1 {
		errs = append(errs, fmt.Errorf("NUM_CLUES_PER_CAT must be positive, got %d", c.CluesPerCat))
	}
	if c.CategoryBatch < c.Categories {
		errs = append(errs, fmt.Errorf("CATEGORY_BATCH (%d) must be at least NUM_CATEGORIES (%d)", c.CategoryBatch, c.Categories))
	}
	if c.CategoryOffsets < 1 {
		errs = append(errs, fmt.Errorf("CATEGORY_OFFSET_PAGES must be positive, got %d", c.CategoryOffsets))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.TokenTTL < c.SessionTTL {
		errs = append(errs, fmt.Errorf("TOKEN_TTL (%s) must be at least SESSION_TTL (%s)", c.TokenTTL, c.SessionTTL))
	}
	if c.Production() && c.SessionSecret == "dev_secret_change_me" {
		errs = append(errs, errors.New("SESSION_SECRET must be set in production"))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int, errs *[]error) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", k, err))
		return def
	}
	return n
}

func getDuration(k string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", k, err))
		return def
	}
	return d
}
