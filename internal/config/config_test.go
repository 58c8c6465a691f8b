package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pfrederiksen/rota-da-festa/internal/logger"
)

var allKeys = []string{
	"DATABASE_URL", "ROTA_STORE", "ROTA_DATA_DIR", "ROTA_LOG_LEVEL",
	"ROTA_GEOCODER_URL", "ROTA_GEOCODER_USER_AGENT", "ROTA_GEOCODE_INTERVAL",
	"ROTA_LOAD_RETRIES", "ROTA_BACKOFF_STEP", "ROTA_DETAIL_DELAY",
	"ROTA_LOOKAHEAD_DAYS", "ROTA_MAX_EDITIONS", "ROTA_PURGE_WEEKDAY",
	"ROTA_CATALOG_FILE", "ROTA_HEADLESS", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
}

// clearEnv blanks every variable FromEnv reads for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	if cfg.LoadRetries != 2 || cfg.BackoffStep != 5*time.Second {
		t.Errorf("retry defaults = %d / %v", cfg.LoadRetries, cfg.BackoffStep)
	}
	if cfg.DetailDelay != 2*time.Second || cfg.LookaheadDays != 7 || cfg.MaxEditions != 5 {
		t.Errorf("crawl defaults = %v / %d / %d", cfg.DetailDelay, cfg.LookaheadDays, cfg.MaxEditions)
	}
	if cfg.GeocodeInterval != time.Second {
		t.Errorf("GeocodeInterval = %v, want 1s", cfg.GeocodeInterval)
	}
	if cfg.PurgeWeekday != time.Monday {
		t.Errorf("PurgeWeekday = %v, want Monday", cfg.PurgeWeekday)
	}
	if !cfg.Headless || cfg.TelegramEnabled() {
		t.Errorf("Headless = %v, TelegramEnabled = %v", cfg.Headless, cfg.TelegramEnabled())
	}
	if cfg.LogLevel != logger.LevelInfo {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if p := cfg.RetryPolicy(); p.MaxAttempts != 3 || p.Backoff(2) != 10*time.Second {
		t.Errorf("RetryPolicy() = %d attempts, backoff(2) = %v", p.MaxAttempts, p.Backoff(2))
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROTA_STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://rota@localhost/rota?sslmode=disable")
	t.Setenv("ROTA_LOG_LEVEL", "debug")
	t.Setenv("ROTA_DETAIL_DELAY", "500ms")
	t.Setenv("ROTA_BACKOFF_STEP", "1.5")
	t.Setenv("ROTA_PURGE_WEEKDAY", "quarta-feira")
	t.Setenv("ROTA_HEADLESS", "false")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001234")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	if cfg.DetailDelay != 500*time.Millisecond {
		t.Errorf("DetailDelay = %v", cfg.DetailDelay)
	}
	if cfg.BackoffStep != 1500*time.Millisecond {
		t.Errorf("BackoffStep = %v", cfg.BackoffStep)
	}
	if cfg.PurgeWeekday != time.Wednesday {
		t.Errorf("PurgeWeekday = %v", cfg.PurgeWeekday)
	}
	if cfg.Headless {
		t.Error("Headless should be false")
	}
	if !cfg.TelegramEnabled() || cfg.TelegramChatID != -1001234 {
		t.Errorf("telegram = %q / %d", cfg.TelegramToken, cfg.TelegramChatID)
	}
	if cfg.LogLevel != logger.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if opts := cfg.StorageOptions(); opts.Backend != "postgres" || opts.DatabaseURL == "" {
		t.Errorf("StorageOptions() = %+v", opts)
	}
}

func TestRetryPolicy_CountsRetriesAfterFirstAttempt(t *testing.T) {
	tests := []struct {
		retries      string
		wantAttempts int
	}{
		{"0", 1},
		{"1", 2},
		{"4", 5},
	}

	for _, tt := range tests {
		t.Run(tt.retries, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("ROTA_LOAD_RETRIES", tt.retries)
			cfg, err := FromEnv()
			if err != nil {
				t.Fatalf("FromEnv() error = %v", err)
			}
			if got := cfg.RetryPolicy().MaxAttempts; got != tt.wantAttempts {
				t.Errorf("ROTA_LOAD_RETRIES=%s gives %d attempts, want %d", tt.retries, got, tt.wantAttempts)
			}
		})
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad int", map[string]string{"ROTA_LOOKAHEAD_DAYS": "seven"}},
		{"negative retries", map[string]string{"ROTA_LOAD_RETRIES": "-1"}},
		{"bad duration", map[string]string{"ROTA_DETAIL_DELAY": "soon"}},
		{"negative duration", map[string]string{"ROTA_DETAIL_DELAY": "-2s"}},
		{"bad bool", map[string]string{"ROTA_HEADLESS": "maybe"}},
		{"bad weekday", map[string]string{"ROTA_PURGE_WEEKDAY": "funday"}},
		{"unknown store", map[string]string{"ROTA_STORE": "sqlite"}},
		{"postgres without url", map[string]string{"ROTA_STORE": "postgres"}},
		{"token without chat", map[string]string{"TELEGRAM_BOT_TOKEN": "123:abc"}},
		{"bad chat id", map[string]string{"TELEGRAM_BOT_TOKEN": "123:abc", "TELEGRAM_CHAT_ID": "@canal"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); err == nil {
				t.Errorf("FromEnv() with %v should fail", tt.env)
			}
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("ROTA_LOOKAHEAD_DAYS=3\nROTA_MAX_EDITIONS=2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ROTA_MAX_EDITIONS", "4")
	// godotenv only fills variables that are unset, not ones set to ""
	os.Unsetenv("ROTA_LOOKAHEAD_DAYS")

	orig := DotEnvFiles
	DotEnvFiles = []string{envFile, filepath.Join(dir, "missing.env")}
	defer func() { DotEnvFiles = orig }()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LookaheadDays != 3 {
		t.Errorf("LookaheadDays = %d, want 3 from the env file", cfg.LookaheadDays)
	}
	if cfg.MaxEditions != 4 {
		t.Errorf("MaxEditions = %d, want 4 (environment wins)", cfg.MaxEditions)
	}
}

func TestParseWeekday(t *testing.T) {
	tests := map[string]time.Weekday{
		"monday":        time.Monday,
		"Segunda-feira": time.Monday,
		"sábado":        time.Saturday,
		"0":             time.Sunday,
		" 5 ":           time.Friday,
	}
	for in, want := range tests {
		got, err := ParseWeekday(in)
		if err != nil || got != want {
			t.Errorf("ParseWeekday(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseWeekday("7"); err == nil {
		t.Error("ParseWeekday(\"7\") should fail")
	}
}

func TestLoadCatalog_Default(t *testing.T) {
	cat, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog(\"\") error = %v", err)
	}
	if len(cat.Sources) == 0 {
		t.Fatal("embedded catalog is empty")
	}
	sources := cat.CrawlerSources()
	if sources[0].Name != "AF Braga" || sources[0].MaxEditions != 5 {
		t.Errorf("first source = %+v", sources[0])
	}
}

func TestParseCatalog(t *testing.T) {
	t.Run("dedups urls", func(t *testing.T) {
		cat, err := ParseCatalog([]byte(`
sources:
  - name: AF Braga
    url: https://www.zerozero.pt/associacao/af-braga/12
  - name: AF Braga again
    url: https://www.zerozero.pt/associacao/af-braga/12
`))
		if err != nil {
			t.Fatalf("ParseCatalog() error = %v", err)
		}
		if len(cat.Sources) != 1 {
			t.Errorf("Sources = %d, want 1", len(cat.Sources))
		}
	})

	for name, doc := range map[string]string{
		"missing url":    "sources:\n  - name: AF Braga\n",
		"invalid url":    "sources:\n  - name: AF Braga\n    url: not a url\n",
		"negative cap":   "sources:\n  - name: AF Braga\n    url: https://x.pt/a\n    max_editions: -1\n",
		"malformed yaml": "sources: [",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(doc)); err == nil {
				t.Errorf("ParseCatalog(%q) should fail", doc)
			}
		})
	}
}

func TestLoadCatalog_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("sources:\n  - name: AF Porto\n    url: https://www.zerozero.pt/associacao/af-porto/13\n    max_editions: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if len(cat.Sources) != 1 || cat.Sources[0].MaxEditions != 1 {
		t.Errorf("catalog = %+v", cat)
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadCatalog() on a missing file should fail")
	}
}
