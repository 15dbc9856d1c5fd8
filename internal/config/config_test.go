package config

import (
	"reflect"
	"testing"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

var loadKeys = []string{
	"APP_ENV", "ENV", "PORT", "STORAGE_MODE", "SQLITE_PATH",
	"DATABASE_URL", "DATABASE_URL_POOLED", "DATABASE_URL_DIRECT",
	"AUTH_MODE", "AUTH_REQUIRED", "JWT_SECRET", "JWT_ISSUER", "JWT_TTL_MINUTES",
	"AI_MODE", "AI_TEMPERATURE", "NUTRITION_LOOKUP_MODE", "EDAMAM_APP_ID", "EDAMAM_APP_KEY",
	"COACH_MAX_INSIGHTS", "COACH_HISTORY_LIMIT", "DEFAULT_TIMEZONE",
	"BLOB_MODE", "REPORTS_MODE", "REPORTS_MAX_RANGE_DAYS", "CORS_ALLOWED_ORIGINS",
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, loadKeys...)

	cfg := Load()

	if cfg.Env != "local" || cfg.Port != 8080 {
		t.Fatalf("unexpected env/port: %s %d", cfg.Env, cfg.Port)
	}
	if cfg.StorageMode != StorageModeAuto || cfg.SQLitePath != "coach.db" {
		t.Fatalf("unexpected storage defaults: %s %s", cfg.StorageMode, cfg.SQLitePath)
	}
	if cfg.AuthMode != "none" || cfg.AuthRequired || cfg.UsesAuth() {
		t.Fatalf("expected auth disabled by default, got mode=%s required=%t", cfg.AuthMode, cfg.AuthRequired)
	}
	if cfg.JWTSecret != "change_me" || cfg.JWTIssuer != "coach-hub" || cfg.JWTTTLMinutes != 10080 {
		t.Fatalf("unexpected jwt defaults: %s %s %d", cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTLMinutes)
	}
	if cfg.AIMode != AIModeMock || cfg.NutritionLookupMode != LookupModeAuto {
		t.Fatalf("unexpected ai defaults: %s %s", cfg.AIMode, cfg.NutritionLookupMode)
	}
	if cfg.CoachMaxInsights != 20 || cfg.CoachHistoryLimit != 12 || cfg.DefaultTimeZone != "UTC" {
		t.Fatalf("unexpected coach defaults: %d %d %s", cfg.CoachMaxInsights, cfg.CoachHistoryLimit, cfg.DefaultTimeZone)
	}
	if cfg.ReportsMaxRangeDays != 31 || cfg.Blob.EffectiveReportsMode() != BlobModeLocal {
		t.Fatalf("unexpected reports defaults: %d %s", cfg.ReportsMaxRangeDays, cfg.Blob.EffectiveReportsMode())
	}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, []string{"http://localhost:3000", "http://localhost:8081"}) {
		t.Fatalf("unexpected local CORS origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadDatabaseURLPriority(t *testing.T) {
	clearEnv(t, loadKeys...)
	t.Setenv("DATABASE_URL", "postgres://plain")
	t.Setenv("DATABASE_URL_DIRECT", "postgres://direct")

	cfg := Load()
	if cfg.DatabaseURL != "postgres://plain" {
		t.Fatalf("expected DATABASE_URL at runtime, got %s", cfg.DatabaseURL)
	}

	t.Setenv("DATABASE_URL_POOLED", "postgres://pooled")
	cfg = Load()
	if cfg.DatabaseURL != "postgres://pooled" {
		t.Fatalf("expected the pooled URL to win, got %s", cfg.DatabaseURL)
	}
	if cfg.DatabaseURLDirect != "postgres://direct" {
		t.Fatalf("expected the direct URL to be kept, got %s", cfg.DatabaseURLDirect)
	}
}

func TestLoadModes(t *testing.T) {
	clearEnv(t, loadKeys...)
	t.Setenv("STORAGE_MODE", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/coach-test.db")
	t.Setenv("AUTH_MODE", "dev")
	t.Setenv("AUTH_REQUIRED", "1")
	t.Setenv("AI_MODE", "telepathy")
	t.Setenv("NUTRITION_LOOKUP_MODE", "none")
	t.Setenv("DEFAULT_TIMEZONE", "Mars/Olympus")
	t.Setenv("COACH_MAX_INSIGHTS", "-3")
	t.Setenv("REPORTS_MODE", "auto")

	cfg := Load()

	if cfg.StorageMode != StorageModeSQLite || cfg.SQLitePath != "/tmp/coach-test.db" {
		t.Fatalf("unexpected storage: %s %s", cfg.StorageMode, cfg.SQLitePath)
	}
	if !cfg.UsesAuth() || !cfg.AuthRequired {
		t.Fatalf("expected required dev auth")
	}
	if cfg.AIMode != AIModeMock {
		t.Fatalf("expected unknown AI_MODE to fall back to mock, got %s", cfg.AIMode)
	}
	if cfg.NutritionLookupMode != LookupModeNone {
		t.Fatalf("expected lookup none, got %s", cfg.NutritionLookupMode)
	}
	if cfg.DefaultTimeZone != "UTC" {
		t.Fatalf("expected unknown zone to fall back to UTC, got %s", cfg.DefaultTimeZone)
	}
	if cfg.CoachMaxInsights != 20 {
		t.Fatalf("expected invalid insight cap to fall back to 20, got %d", cfg.CoachMaxInsights)
	}
	if cfg.Blob.EffectiveReportsMode() != BlobModeAuto {
		t.Fatalf("expected REPORTS_MODE=auto, got %s", cfg.Blob.EffectiveReportsMode())
	}
}

func TestAuthRequiredNeedsAuthMode(t *testing.T) {
	clearEnv(t, loadKeys...)
	t.Setenv("AUTH_MODE", "none")
	t.Setenv("AUTH_REQUIRED", "1")

	if cfg := Load(); cfg.AuthRequired {
		t.Fatal("AUTH_REQUIRED must be ignored without AUTH_MODE=dev")
	}
}

func TestParseCORSOrigins(t *testing.T) {
	if got := parseCORSOrigins(" https://a.test , ,https://b.test", "prod"); !reflect.DeepEqual(got, []string{"https://a.test", "https://b.test"}) {
		t.Fatalf("unexpected origins: %v", got)
	}
	if got := parseCORSOrigins("", "prod"); got != nil {
		t.Fatalf("expected no origins in prod by default, got %v", got)
	}
}
