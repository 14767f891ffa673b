package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DBDriver != DriverPostgres {
		t.Fatalf("driver: want=%s got=%s", DriverPostgres, cfg.DBDriver)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("access ttl: want=1h got=%s", cfg.AccessTokenTTL)
	}
	if cfg.Indexer.PollInterval != 2*time.Second {
		t.Fatalf("poll interval: want=2s got=%s", cfg.Indexer.PollInterval)
	}
}

func TestLoadConfigFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kolomoni.yaml")
	doc := []byte(`
db_driver: sqlite
sqlite_path: /tmp/lexicon.db
access_token_ttl: 15m
indexer_batch_size: 25
metrics_enabled: true
cors_allowed_origins:
  - https://a.example
  - https://b.example
`)
	if err := os.WriteFile(path, doc, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("INDEXER_BATCH_SIZE", "40")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DBDriver != DriverSQLite || cfg.SQLitePath != "/tmp/lexicon.db" {
		t.Fatalf("db: got driver=%s path=%s", cfg.DBDriver, cfg.SQLitePath)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("access ttl: want=15m got=%s", cfg.AccessTokenTTL)
	}
	if cfg.Indexer.BatchSize != 40 {
		t.Fatalf("environment should win: want=40 got=%d", cfg.Indexer.BatchSize)
	}
	if !cfg.MetricsEnabled {
		t.Fatalf("metrics_enabled from file ignored")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins: got=%v", cfg.CORSOrigins)
	}
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
