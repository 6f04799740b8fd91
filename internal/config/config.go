package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultMaxRetries     = 5
	DefaultInitialDelayMs = 1000
)

// ChannelConfig holds the channel endpoint and reconnection policy.
// MaxRetries of zero disables reconnection; InitialDelayMs is the base of
// the exponential backoff.
type ChannelConfig struct {
	Address        string `json:"address"`
	MaxRetries     int    `json:"max_retries"`
	InitialDelayMs int    `json:"initial_delay_ms"`
	KeepAliveSecs  int    `json:"keep_alive_secs"`
}

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	LogToFile bool   `json:"log_to_file"`
}

// HistoryConfig controls the caller-side sqlite message log.
type HistoryConfig struct {
	Enabled bool `json:"enabled"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Channel ChannelConfig `json:"channel"`
	Logging LoggingConfig `json:"logging"`
	History HistoryConfig `json:"history"`
}

func Default() AppConfig {
	return AppConfig{
		Channel: ChannelConfig{
			Address:        "",
			MaxRetries:     DefaultMaxRetries,
			InitialDelayMs: DefaultInitialDelayMs,
			KeepAliveSecs:  0,
		},
		Logging: LoggingConfig{
			Level:     "info",
			LogToFile: false,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Load reads the config file, tolerating a missing file by returning
// defaults. Fields omitted from the file keep their default values.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by the app runtime and points to the user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

// FillMissingDefaults restores defaults for fields a hand-edited file may
// have zeroed out where zero has no meaning. A negative value is left
// alone so Validate can reject it as a contract violation.
func (c *AppConfig) FillMissingDefaults() {
	if c.Channel.InitialDelayMs == 0 {
		c.Channel.InitialDelayMs = DefaultInitialDelayMs
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c AppConfig) Validate() error {
	if strings.TrimSpace(c.Channel.Address) == "" {
		return errors.New("channel address is required")
	}
	if c.Channel.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative: %d", c.Channel.MaxRetries)
	}
	if c.Channel.InitialDelayMs <= 0 {
		return fmt.Errorf("initial_delay_ms must be positive: %d", c.Channel.InitialDelayMs)
	}
	if c.Channel.KeepAliveSecs < 0 {
		return fmt.Errorf("keep_alive_secs must be non-negative: %d", c.Channel.KeepAliveSecs)
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}
