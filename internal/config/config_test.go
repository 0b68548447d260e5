package config

import (
	"os"
	"strings"
	"testing"
)

const testKey = "dGVzdC1rZXktMzItYnl0ZXMtbG9uZy1wYWRkaW5nIQ=="

// chdir is t.Chdir for toolchains older than Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir()) // keep any .env writes out of the repo
	t.Setenv("INTELHUB_KEY", testKey)
	t.Setenv("PORT", "9191")
	t.Setenv("INTELHUB_DATA_DIR", "/tmp/intel-data")
	t.Setenv("INTELHUB_DB_PATH", "/tmp/intel-data/test.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Key != testKey {
		t.Errorf("expected key from env, got %q", cfg.Key)
	}
	if cfg.Port != 9191 {
		t.Errorf("expected port 9191, got %d", cfg.Port)
	}
	if cfg.DataDir != "/tmp/intel-data" {
		t.Errorf("unexpected data dir %q", cfg.DataDir)
	}
	if cfg.DBPath != "/tmp/intel-data/test.db" {
		t.Errorf("unexpected db path %q", cfg.DBPath)
	}
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("INTELHUB_KEY", testKey)
	t.Setenv("PORT", "")
	t.Setenv("INTELHUB_DATA_DIR", "")
	t.Setenv("INTELHUB_DB_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.DataDir != "DATA" {
		t.Errorf("expected default data dir, got %q", cfg.DataDir)
	}
	if !strings.Contains(cfg.DBPath, "intelligence_platform.db") {
		t.Errorf("expected default db path, got %q", cfg.DBPath)
	}
}

func TestLoadGeneratesMissingKey(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("INTELHUB_KEY", "too-short")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Key) < 32 {
		t.Errorf("generated key too short: %d chars", len(cfg.Key))
	}
	if cfg.Key == "too-short" {
		t.Error("short key should have been replaced")
	}
}
