// Package config loads orchestrator settings from a YAML file. The config
// file is optional; every field has a default so a zero-config start works.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoggingConfig selects the log level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RateLimitConfig caps protocol call-tool throughput.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CacheConfig selects the tool result cache backend.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend   string `yaml:"backend"`
	RedisAddr string `yaml:"redis_addr"`
}

// EventStoreConfig selects the conversation event log backend.
type EventStoreConfig struct {
	// Backend is "memory" or "sql".
	Backend string `yaml:"backend"`
	// DSN is the database connection string for the sql backend.
	DSN string `yaml:"dsn"`
}

// Config is the top-level orchestrator configuration.
type Config struct {
	AgentType           string           `yaml:"agent_type"`
	EscalationThreshold float64          `yaml:"escalation_threshold"`
	CallTimeoutSeconds  int              `yaml:"call_timeout_seconds"`
	Logging             LoggingConfig    `yaml:"logging"`
	RateLimit           RateLimitConfig  `yaml:"rate_limit"`
	Cache               CacheConfig      `yaml:"cache"`
	EventStore          EventStoreConfig `yaml:"event_store"`
}

// Default returns the baseline configuration used when no file is supplied.
func Default() Config {
	return Config{
		AgentType:           "orchestrator",
		EscalationThreshold: 0.8,
		CallTimeoutSeconds:  30,
		Logging:             LoggingConfig{Level: "info", Format: "json"},
		Cache:               CacheConfig{Backend: "memory"},
		EventStore:          EventStoreConfig{Backend: "memory"},
	}
}

// Load reads and parses the YAML file at path, layering it over Default().
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.EscalationThreshold < 0 || cfg.EscalationThreshold > 1 {
		return cfg, fmt.Errorf("escalation_threshold %v out of range [0,1]", cfg.EscalationThreshold)
	}
	return cfg, nil
}

// CallTimeout returns the configured tool call timeout as a duration.
func (c Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}
