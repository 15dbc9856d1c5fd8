package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/coach-hub/internal/config"
	"github.com/fdg312/coach-hub/internal/dbmigrate"
	"github.com/fdg312/coach-hub/internal/httpserver"
)

func main() {
	cfg := config.Load()

	printStartupBanner(cfg)

	if cfg.RunMigrationsOnStartup && usesPostgres(cfg) {
		target, err := dbmigrate.SelectDatabaseURL(cfg, false)
		if err != nil {
			log.Fatalf("FATAL startup migrations: %v", err)
		}
		if target.Warning != "" {
			log.Printf("WARN startup migrations: %s", target.Warning)
		}

		log.Printf("startup migrations: command=up using=%s", target.Source)
		if err := dbmigrate.Run(context.Background(), "up", target.URL); err != nil {
			log.Fatalf("FATAL startup migrations failed: %v", err)
		}
		log.Printf("startup migrations: completed")
	}

	validateProductionConfig(cfg)

	server := httpserver.New(cfg)
	defer server.Close()

	if err := server.Start(); err != nil {
		log.Printf("FATAL server: %v", err)
	}
}

func usesPostgres(cfg *config.Config) bool {
	switch cfg.StorageMode {
	case config.StorageModePostgres:
		return true
	case config.StorageModeAuto, "":
		return cfg.DatabaseURL != ""
	default:
		return false
	}
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// Secrets are shown only as "set" / "not set".
func printStartupBanner(cfg *config.Config) {
	log.Println("========== Coach Hub API ==========")
	log.Printf("  env              = %s", cfg.Env)
	log.Printf("  port             = %d", cfg.Port)
	log.Printf("  default_tz       = %s", nonEmptyOrDash(cfg.DefaultTimeZone))

	log.Println("---- storage ----")
	log.Printf("  storage_mode     = %s", cfg.StorageMode)
	switch cfg.StorageMode {
	case config.StorageModeSQLite:
		log.Printf("  sqlite_path      = %s", cfg.SQLitePath)
	default:
		log.Printf("  runtime_url      = %s", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled))
		log.Printf("  pooled           = %s", setOrNot(cfg.DatabaseURLPooled))
		log.Printf("  direct           = %s", setOrNot(cfg.DatabaseURLDirect))
	}
	log.Printf("  migrations_on_startup = %t", cfg.RunMigrationsOnStartup)

	log.Println("---- auth ----")
	log.Printf("  auth_mode        = %s", cfg.AuthMode)
	log.Printf("  auth_required    = %t", cfg.AuthRequired)
	if cfg.UsesAuth() {
		log.Printf("  jwt_secret       = %s", secretStatus(cfg.JWTSecret, "change_me"))
		log.Printf("  jwt_ttl_minutes  = %d", cfg.JWTTTLMinutes)
	}

	log.Println("---- reports ----")
	log.Printf("  reports_mode     = %s (effective=%s)", displayReportsMode(cfg), cfg.Blob.EffectiveReportsMode())
	log.Printf("  max_range_days   = %d", cfg.ReportsMaxRangeDays)
	if cfg.Blob.EffectiveReportsMode() != config.BlobModeLocal {
		log.Printf("  s3: %s", cfg.Blob.S3.DiagnosticsSummary())
	}

	log.Println("---- ai ----")
	log.Printf("  ai_mode          = %s", cfg.AIMode)
	switch cfg.AIMode {
	case config.AIModeOpenAI:
		log.Printf("  openai_model     = %s", cfg.OpenAIModel)
		log.Printf("  openai_api_key   = %s", setOrNot(cfg.OpenAIAPIKey))
	case config.AIModeBedrock:
		log.Printf("  bedrock_model    = %s", cfg.Bedrock.ModelID)
		log.Printf("  bedrock_region   = %s", nonEmptyOrDash(cfg.Bedrock.Region))
	}
	log.Printf("  nutrition_lookup = %s", cfg.NutritionLookupMode)
	if cfg.NutritionLookupMode == config.LookupModeEdamam || cfg.NutritionLookupMode == config.LookupModeAuto {
		log.Printf("  edamam           = %s", configuredOrNot(cfg.Edamam.IsConfigured()))
	}

	log.Println("---- coach ----")
	log.Printf("  max_insights     = %d", cfg.CoachMaxInsights)
	log.Printf("  history_limit    = %d", cfg.CoachHistoryLimit)
	log.Printf("  otel_enabled     = %t", cfg.OtelEnabled)

	log.Println("===================================")
}

// validateProductionConfig performs fatal checks that only matter in non-local envs.
func validateProductionConfig(cfg *config.Config) {
	isProd := cfg.Env == "production" || cfg.Env == "prod" || cfg.Env == "staging"

	if cfg.Blob.EffectiveReportsMode() == config.BlobModeS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			log.Fatalf("FATAL blob: REPORTS_MODE is 's3' but S3 config is incomplete, missing: %s", strings.Join(missing, ", "))
		}
	}

	if cfg.AIMode == config.AIModeOpenAI && strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		log.Fatal("FATAL ai: AI_MODE=openai but OPENAI_API_KEY is not set")
	}

	if isProd && cfg.UsesAuth() && cfg.JWTSecret == "change_me" {
		log.Fatalf("FATAL auth: JWT_SECRET must not be 'change_me' in %s", cfg.Env)
	}

	if isProd && !cfg.AuthRequired {
		log.Printf("WARN auth: AUTH_REQUIRED is off in %s, requests without a token act as the default user", cfg.Env)
	}

	if isProd && cfg.StorageMode == config.StorageModeMemory {
		log.Printf("WARN storage: STORAGE_MODE=memory in %s, data is lost on restart", cfg.Env)
	}
}

// ---- helpers (no secrets) ----

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func configuredOrNot(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func nonEmptyOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return fmt.Sprintf("set (DEFAULT, insecure '%s')", insecureDefault)
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}

func displayReportsMode(cfg *config.Config) string {
	if cfg.Blob.ReportsModeSet {
		return cfg.Blob.ReportsMode
	}
	return fmt.Sprintf("(inherits BLOB_MODE=%s)", cfg.Blob.Mode)
}
