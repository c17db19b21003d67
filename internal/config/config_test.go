package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Port != 3030 {
		t.Errorf("Expected default port 3030, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.PoolSize != 10 {
		t.Errorf("Expected default pool size 10, got %d", cfg.Database.PoolSize)
	}
	if cfg.Search.DefaultPageSize != 20 || cfg.Search.MaxPageSize != 1000 {
		t.Errorf("Expected default pagination 20/1000, got %d/%d",
			cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)
	}
}

func TestLoadAppliesFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recapd.yaml")
	content := `
http:
  port: 9090
database:
  path: /tmp/custom.db
  pool_size: 4
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Path != "/tmp/custom.db" {
		t.Errorf("Expected custom path, got %q", cfg.Database.Path)
	}
	if cfg.Database.PoolSize != 4 {
		t.Errorf("Expected pool size 4, got %d", cfg.Database.PoolSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("RECAPD_TEST_DB", "/data/index.db")

	path := filepath.Join(t.TempDir(), "recapd.yaml")
	content := `
database:
  path: ${RECAPD_TEST_DB}
http:
  port: ${RECAPD_TEST_PORT:-8181}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Path != "/data/index.db" {
		t.Errorf("Expected expanded path, got %q", cfg.Database.Path)
	}
	if cfg.HTTP.Port != 8181 {
		t.Errorf("Expected default-expanded port 8181, got %d", cfg.HTTP.Port)
	}
}

func TestValidateRejectsBadLevel(t *testing.T) {
	cfg := Config{Logging: LoggingConfig{Level: "verbose"}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for bad log level")
	}
}

func TestValidateRejectsInvertedPageSizes(t *testing.T) {
	cfg := Config{Search: SearchConfig{DefaultPageSize: 500, MaxPageSize: 100}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for default page size above max")
	}
}
