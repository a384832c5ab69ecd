package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env here

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "default", cfg.DefaultRoom)
	assert.Equal(t, 16, cfg.OutboxSize)
	assert.False(t, cfg.ModeratorOnly)
	assert.False(t, cfg.MaskVotes)
	assert.False(t, cfg.Jira.Enabled())
	assert.Equal(t, 10*time.Second, cfg.Jira.Timeout)
	assert.Equal(t, 2, cfg.Jira.Retries)
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "poker.env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"JIRA_URL=https://example.atlassian.net\n"+
			"JIRA_USERNAME=bot@example.com\n"+
			"JIRA_PASSWORD=token\n"+
			"JIRA_STORYPOINT_FIELD=customfield_10016\n"+
			"ADDR=:9000\n"), 0o600))

	t.Setenv("ADDR", ":7000") // already set wins
	t.Setenv("MASK_VOTES", "true")
	t.Setenv("ALLOWED_ORIGINS", "localhost:*,example.com")
	t.Setenv("JIRA_RETRIES", "0")
	// godotenv writes into the process env; clear what it sets afterwards
	for _, k := range []string{"JIRA_URL", "JIRA_USERNAME", "JIRA_PASSWORD", "JIRA_STORYPOINT_FIELD"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.True(t, cfg.MaskVotes)
	assert.Equal(t, []string{"localhost:*", "example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Jira.Enabled())
	assert.Equal(t, "bot@example.com", cfg.Jira.Username)
	assert.Equal(t, "customfield_10016", cfg.Jira.StoryPointField)
	assert.Equal(t, 0, cfg.Jira.Retries)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Config{
		Addr:        "",
		LogLevel:    "loud",
		LogFormat:   "xml",
		DefaultRoom: "default",
		OutboxSize:  0,
		Jira:        JiraConfig{URL: "https://example.atlassian.net"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	errs := multierr.Errors(err)
	assert.Len(t, errs, 7)
	assert.Contains(t, err.Error(), "JIRA_USERNAME")
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}
