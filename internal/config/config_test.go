package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "data/projects.json", cfg.CatalogPath)
	assert.Equal(t, 1000, cfg.SessionCapacity)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.RecommendLimit)
	assert.Equal(t, ":8090", cfg.MgmtListenAddr)
	assert.Equal(t, "api-key", cfg.MgmtAuthMode)
	assert.False(t, cfg.StrictFilters)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LETTUCE_SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("LETTUCE_SLACK_APP_TOKEN", "xapp-test")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("STRICT_FILTERS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.SlackEnabled())
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.StrictFilters)
}

func TestSlackDisabledWithoutBothTokens(t *testing.T) {
	t.Setenv("LETTUCE_SLACK_BOT_TOKEN", "xoxb-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.SlackEnabled())
}

func TestDevelopment(t *testing.T) {
	cfg := &Config{Environment: "development"}
	assert.True(t, cfg.Development())

	cfg.Environment = "Production"
	assert.False(t, cfg.Development())
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("SESSION_CAPACITY", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsUnknownAuthMode(t *testing.T) {
	t.Setenv("MGMT_AUTH_MODE", "oauth")
	_, err := Load()
	assert.Error(t, err)
}
