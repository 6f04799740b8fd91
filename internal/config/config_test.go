package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	if cfg.Channel.MaxRetries != DefaultMaxRetries {
		t.Fatalf("max_retries = %d, want %d", cfg.Channel.MaxRetries, DefaultMaxRetries)
	}
	if cfg.Channel.InitialDelayMs != DefaultInitialDelayMs {
		t.Fatalf("initial_delay_ms = %d, want %d", cfg.Channel.InitialDelayMs, DefaultInitialDelayMs)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("level = %q, want info", cfg.Logging.Level)
	}
	if !cfg.History.Enabled {
		t.Fatal("history should be enabled by default")
	}
}

func TestLoadMergesPartialFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{"channel": {"address": "ws://localhost:8000/ws", "max_retries": 3}}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Channel.Address != "ws://localhost:8000/ws" {
		t.Fatalf("address = %q", cfg.Channel.Address)
	}
	if cfg.Channel.MaxRetries != 3 {
		t.Fatalf("max_retries = %d, want 3", cfg.Channel.MaxRetries)
	}
	if cfg.Channel.InitialDelayMs != DefaultInitialDelayMs {
		t.Fatalf("initial_delay_ms = %d, want default %d", cfg.Channel.InitialDelayMs, DefaultInitialDelayMs)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"channel":`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestValidate(t *testing.T) {
	base := Default()
	base.Channel.Address = "ws://localhost:8000/ws"

	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	noAddress := base
	noAddress.Channel.Address = "  "
	if err := noAddress.Validate(); err == nil {
		t.Fatal("expected error for missing address")
	}

	negRetries := base
	negRetries.Channel.MaxRetries = -1
	if err := negRetries.Validate(); err == nil {
		t.Fatal("expected error for negative max_retries")
	}

	zeroDelay := base
	zeroDelay.Channel.InitialDelayMs = 0
	if err := zeroDelay.Validate(); err == nil {
		t.Fatal("expected error for zero initial_delay_ms")
	}

	negKeepAlive := base
	negKeepAlive.Channel.KeepAliveSecs = -1
	if err := negKeepAlive.Validate(); err == nil {
		t.Fatal("expected error for negative keep_alive_secs")
	}

	zeroRetries := base
	zeroRetries.Channel.MaxRetries = 0
	if err := zeroRetries.Validate(); err != nil {
		t.Fatalf("zero max_retries should be valid: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Channel.Address = "tcp://localhost:9000"
	cfg.Channel.MaxRetries = 2
	cfg.Logging.Level = "debug"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != cfg {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind after save")
	}
}

func TestSaveRejectsInvalidConfig(t *testing.T) {
	cfg := Default()
	if err := Save(filepath.Join(t.TempDir(), "config.json"), cfg); err == nil {
		t.Fatal("expected error saving config without address")
	}
}

func TestFillMissingDefaultsLeavesNegativesAlone(t *testing.T) {
	cfg := AppConfig{}
	cfg.Channel.InitialDelayMs = -5
	cfg.FillMissingDefaults()
	if cfg.Channel.InitialDelayMs != -5 {
		t.Fatalf("negative delay rewritten to %d", cfg.Channel.InitialDelayMs)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative delay should fail validation")
	}
}
