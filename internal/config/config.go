package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level passbook.yaml configuration.
type Config struct {
	Bank  BankConfig  `yaml:"bank"`
	Log   LogConfig   `yaml:"log"`
	Retry RetryConfig `yaml:"retry"`
	Admin AdminConfig `yaml:"admin"`
}

// BankConfig identifies the institution the ledger belongs to.
type BankConfig struct {
	Name string `yaml:"name"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// RetryConfig bounds retries of failed storage writes. Only storage faults
// are ever retried; validation failures are not.
type RetryConfig struct {
	Attempts int    `yaml:"attempts"`
	Backoff  string `yaml:"backoff"` // Go duration string, e.g. "50ms"
}

// AdminConfig controls the administrative audit trail.
type AdminConfig struct {
	Actor string `yaml:"actor"`
}

// Load reads a passbook.yaml file and layers environment overrides on top
// (PASSBOOK_LOG_LEVEL, PASSBOOK_RETRY_ATTEMPTS, PASSBOOK_RETRY_BACKOFF,
// PASSBOOK_ADMIN_ACTOR). A .env file is honored if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("passbook")
	v.AutomaticEnv()
	if s := v.GetString("log_level"); s != "" {
		cfg.Log.Level = s
	}
	if s := v.GetString("retry_attempts"); s != "" {
		cfg.Retry.Attempts = v.GetInt("retry_attempts")
	}
	if s := v.GetString("retry_backoff"); s != "" {
		cfg.Retry.Backoff = s
	}
	if s := v.GetString("admin_actor"); s != "" {
		cfg.Admin.Actor = s
	}

	if cfg.Retry.Backoff != "" {
		if _, err := time.ParseDuration(cfg.Retry.Backoff); err != nil {
			return nil, fmt.Errorf("invalid retry backoff %q: %w", cfg.Retry.Backoff, err)
		}
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default(bankName string) *Config {
	return &Config{
		Bank:  BankConfig{Name: bankName},
		Log:   LogConfig{Level: "info"},
		Retry: RetryConfig{Attempts: 3, Backoff: "50ms"},
		Admin: AdminConfig{Actor: "admin"},
	}
}

// RetryBackoff returns the parsed backoff, defaulting to 50ms.
func (c *Config) RetryBackoff() time.Duration {
	d, err := time.ParseDuration(c.Retry.Backoff)
	if err != nil || d <= 0 {
		return 50 * time.Millisecond
	}
	return d
}
