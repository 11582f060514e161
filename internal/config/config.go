package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the main cradle configuration
type Config struct {
	// Anthropic completion service
	Anthropic AnthropicConfig `json:"anthropic" mapstructure:"anthropic"`

	// Huckleberry tracking backend
	Huckleberry HuckleberryConfig `json:"huckleberry" mapstructure:"huckleberry"`

	// Session store
	Session SessionConfig `json:"session" mapstructure:"session"`

	// HTTP server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Conversation audit log
	ConvLog ConvLogConfig `json:"convlog" mapstructure:"convlog"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// AnthropicConfig holds completion service configuration
type AnthropicConfig struct {
	APIKey          string `json:"api_key" mapstructure:"api_key"`
	Model           string `json:"model" mapstructure:"model"`
	ClassifierModel string `json:"classifier_model" mapstructure:"classifier_model"`
	MaxTokens       int    `json:"max_tokens" mapstructure:"max_tokens"`
	MaxIterations   int    `json:"max_iterations" mapstructure:"max_iterations"`
}

// HuckleberryConfig holds tracking backend credentials and endpoints
type HuckleberryConfig struct {
	BaseURL  string `json:"base_url" mapstructure:"base_url"`
	Email    string `json:"email" mapstructure:"email"`
	Password string `json:"password" mapstructure:"password"`
	Timezone string `json:"timezone" mapstructure:"timezone"`
}

// SessionConfig holds session store configuration
type SessionConfig struct {
	TTLSeconds           int `json:"ttl_seconds" mapstructure:"ttl_seconds"`
	SweepIntervalSeconds int `json:"sweep_interval_seconds" mapstructure:"sweep_interval_seconds"`
}

// TTL returns the session idle TTL as a duration.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLSeconds) * time.Second
}

// SweepInterval returns the eviction sweep interval as a duration.
func (s SessionConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepIntervalSeconds) * time.Second
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string `json:"host" mapstructure:"host"`
	Port               int    `json:"port" mapstructure:"port"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
	TimeoutSeconds     int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// ConvLogConfig holds conversation audit log configuration
type ConvLogConfig struct {
	Path          string `json:"path" mapstructure:"path"`
	RetentionDays int    `json:"retention_days" mapstructure:"retention_days"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model:           "claude-opus-4-6",
			ClassifierModel: "claude-haiku-4-5-20251001",
			MaxTokens:       16000,
			MaxIterations:   10,
		},
		Huckleberry: HuckleberryConfig{
			BaseURL:  "https://api.huckleberrycare.com",
			Timezone: "America/New_York",
		},
		Session: SessionConfig{
			TTLSeconds:           1800,
			SweepIntervalSeconds: 60,
		},
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8000,
			RateLimitPerMinute: 100,
			TimeoutSeconds:     120,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
		ConvLog: ConvLogConfig{
			RetentionDays: 7,
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic api_key is required")
	}
	if c.Anthropic.Model == "" {
		return fmt.Errorf("anthropic model is required")
	}
	if c.Anthropic.MaxIterations <= 0 {
		return fmt.Errorf("anthropic max_iterations must be positive")
	}
	if c.Huckleberry.Email == "" {
		return fmt.Errorf("huckleberry email is required")
	}
	if c.Huckleberry.Password == "" {
		return fmt.Errorf("huckleberry password is required")
	}
	if _, err := time.LoadLocation(c.Huckleberry.Timezone); err != nil {
		return fmt.Errorf("invalid huckleberry timezone %q: %w", c.Huckleberry.Timezone, err)
	}
	if c.Session.TTLSeconds <= 0 {
		return fmt.Errorf("session ttl_seconds must be positive")
	}
	if c.Session.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("session sweep_interval_seconds must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.ConvLog.RetentionDays <= 0 {
		return fmt.Errorf("convlog retention_days must be positive")
	}
	return nil
}
