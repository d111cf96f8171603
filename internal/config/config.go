package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the widgetd development harness.
type Config struct {
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	Server    ServerConfig
	Session   SessionConfig
	Assistant AssistantConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port string `envconfig:"SERVER_PORT" default:"8090"`
}

// SessionConfig holds call-session token configuration.
type SessionConfig struct {
	Secret string        `envconfig:"SESSION_SECRET" required:"true"`
	TTL    time.Duration `envconfig:"SESSION_TTL" default:"15m"`
}

// AssistantConfig configures the canned development assistant.
type AssistantConfig struct {
	Name       string        `envconfig:"ASSISTANT_NAME" default:"dev-assistant"`
	ReplyDelay time.Duration `envconfig:"ASSISTANT_REPLY_DELAY" default:"0s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration for logical errors beyond required fields.
func (c *Config) Validate() error {
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", c.Session.TTL)
	}
	if c.Assistant.ReplyDelay < 0 {
		return fmt.Errorf("assistant reply delay must not be negative, got %s", c.Assistant.ReplyDelay)
	}
	return nil
}
