package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"DATABASE_URL", "RECORD_STORE", "ORACLE_PROVIDER", "REBUILD_CONCURRENCY", "APP_ENV", "ENV"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.RecordStore != "memory" {
		t.Fatalf("expected memory store, got %s", cfg.RecordStore)
	}
	if cfg.OracleProvider != "placeholder" {
		t.Fatalf("expected placeholder oracle, got %s", cfg.OracleProvider)
	}
	if cfg.RebuildConcurrency != 4 || cfg.RateLimitPerMinute != 60 || cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %s", cfg.Env)
	}
}

func TestLoadDatabaseURLSelectsPostgres(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RECORD_STORE", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/docqa")
	t.Setenv("DB_CONN_MAX_LIFETIME", "5m")

	cfg := Load()
	if cfg.RecordStore != "postgres" {
		t.Fatalf("expected postgres store, got %s", cfg.RecordStore)
	}
	if cfg.DBConnMaxLifetime != 5*time.Minute {
		t.Fatalf("unexpected lifetime %s", cfg.DBConnMaxLifetime)
	}
}

func TestLoadReadsDotEnvWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	content := "ORACLE_PROVIDER=gemini\nQUERY_SINGLEFLIGHT=true\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("QUERY_SINGLEFLIGHT", "false")
	os.Unsetenv("ORACLE_PROVIDER")
	t.Cleanup(func() { os.Unsetenv("ORACLE_PROVIDER") })

	cfg := Load()
	if cfg.OracleProvider != "gemini" {
		t.Fatalf("expected gemini from .env, got %s", cfg.OracleProvider)
	}
	if cfg.QuerySingleflight {
		t.Fatalf("environment should win over .env")
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{Env: "production", RecordStore: "memory", RebuildConcurrency: 1}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing JWT secret error")
	}
	cfg.JWTSecret = "s"
	cfg.RecordStore = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing DATABASE_URL error")
	}
	cfg.DatabaseURL = "postgres://x"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
