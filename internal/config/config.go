package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPPort    int    `envconfig:"HTTP_PORT" default:"8080"`

	// Slack (optional — bot starts without Slack in mgmt-only mode)
	SlackBotToken string `envconfig:"LETTUCE_SLACK_BOT_TOKEN"`
	SlackAppToken string `envconfig:"LETTUCE_SLACK_APP_TOKEN"` // xapp- token for Socket Mode

	// Channels
	ContributeChannel string `envconfig:"CONTRIBUTE_CHANNEL"` // channel to point contributors at
	DeploysChannel    string `envconfig:"DEPLOYS_CHANNEL"`    // startup announcement target

	// Catalog
	CatalogPath string `envconfig:"CATALOG_PATH" default:"data/projects.json"`
	VocabPath   string `envconfig:"VOCAB_PATH"` // optional YAML vocabulary overrides
	GitHubToken string `envconfig:"GITHUB_TOKEN"` // raises the rate limit for catalog refreshes

	// Recommendation
	StrictFilters   bool `envconfig:"STRICT_FILTERS" default:"false"`
	RecommendLimit  int  `envconfig:"RECOMMEND_LIMIT" default:"3"`

	// Sessions
	SessionCapacity int           `envconfig:"SESSION_CAPACITY" default:"1000"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"30m"`

	// Polls
	DBPath string `envconfig:"DB_PATH" default:"lettuce.db"`

	// Rate limiting (per-user Slack events)
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"20"`

	// Management API
	MgmtListenAddr  string `envconfig:"MGMT_LISTEN_ADDR" default:":8090"`
	MgmtAuthMode    string `envconfig:"MGMT_AUTH_MODE" default:"api-key"`
	MgmtAPIKey      string `envconfig:"MGMT_API_KEY"`
	MgmtCORSOrigins string `envconfig:"MGMT_CORS_ORIGINS"`
}

// SlackEnabled returns true if Slack tokens are configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackAppToken != ""
}

// Development returns true outside of production.
func (c *Config) Development() bool {
	return !strings.EqualFold(c.Environment, "production")
}

// Validate checks invariants that envconfig defaults cannot express.
func (c *Config) Validate() error {
	if c.SessionCapacity <= 0 {
		return fmt.Errorf("SESSION_CAPACITY must be positive, got %d", c.SessionCapacity)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.RecommendLimit <= 0 {
		return fmt.Errorf("RECOMMEND_LIMIT must be positive, got %d", c.RecommendLimit)
	}
	if c.MgmtAuthMode != "api-key" && c.MgmtAuthMode != "none" {
		return fmt.Errorf("MGMT_AUTH_MODE must be \"api-key\" or \"none\", got %q", c.MgmtAuthMode)
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
