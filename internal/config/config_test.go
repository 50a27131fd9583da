package config

import (
	"strings"
	"testing"
	"time"
)

var keys = []string{
	"PORT", "LOG_LEVEL", "APP_ENV", "JSERVICE_URL", "ARCHIVE_DSN", "ARCHIVE_SEED_FILE",
	"HTTP_TIMEOUT", "NUM_CATEGORIES", "NUM_CLUES_PER_CAT", "CATEGORY_BATCH",
	"CATEGORY_OFFSET_PAGES", "SESSION_TTL", "TOKEN_TTL", "SESSION_SECRET", "CLIENT_ORIGIN",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != "5175" || c.JServiceURL != "https://jservice.io/api" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.Categories != 6 || c.CluesPerCat != 5 || c.CategoryBatch != 100 || c.CategoryOffsets != 200 {
		t.Fatalf("unexpected board defaults: %+v", c)
	}
	if c.HTTPTimeout != 10*time.Second || c.SessionTTL != time.Hour || c.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected durations: %+v", c)
	}
	if c.TokenTTL <= c.SessionTTL {
		t.Fatalf("token ttl %s must outlive session ttl %s", c.TokenTTL, c.SessionTTL)
	}
	if c.ArchiveDSN != "" || c.Production() {
		t.Fatalf("unexpected source defaults: %+v", c)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("NUM_CATEGORIES", "3")
	t.Setenv("NUM_CLUES_PER_CAT", "2")
	t.Setenv("HTTP_TIMEOUT", "2s")
	t.Setenv("ARCHIVE_DSN", "data/clues.db")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != "9000" || c.Categories != 3 || c.CluesPerCat != 2 || c.HTTPTimeout != 2*time.Second {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.ArchiveDSN != "data/clues.db" {
		t.Fatalf("archive dsn: %q", c.ArchiveDSN)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"non-numeric":     {"NUM_CATEGORIES": "six"},
		"zero clues":      {"NUM_CLUES_PER_CAT": "0"},
		"batch too small": {"NUM_CATEGORIES": "8", "CATEGORY_BATCH": "5"},
		"bad duration":    {"SESSION_TTL": "forever"},
		"short token ttl": {"SESSION_TTL": "2h", "TOKEN_TTL": "1h"},
		"prod secret":     {"APP_ENV": "production"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.HasPrefix(err.Error(), "config: ") {
				t.Fatalf("unexpected error text: %v", err)
			}
		})
	}
}
