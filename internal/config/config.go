package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Addr        string `envconfig:"ADDR" default:":4000"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	DefaultRoom string `envconfig:"DEFAULT_ROOM" default:"default"`

	ModeratorOnly bool `envconfig:"MODERATOR_ONLY"`
	MaskVotes     bool `envconfig:"MASK_VOTES"`

	OutboxSize int `envconfig:"OUTBOX_SIZE" default:"16"`
	// AllowedOrigins is a comma separated list of websocket origin patterns.
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	Jira JiraConfig `envconfig:"JIRA"`
}

// JiraConfig is read from JIRA_* variables. The tracker is off when URL is
// empty.
type JiraConfig struct {
	URL                     string        `envconfig:"URL"`
	Username                string        `envconfig:"USERNAME"`
	Password                string        `envconfig:"PASSWORD"`
	StoryPointField         string        `envconfig:"STORYPOINT_FIELD"`
	DescriptionField        string        `envconfig:"DESCRIPTION_FIELD"`
	AcceptanceCriteriaField string        `envconfig:"ACCEPTANCE_CRITERIA_FIELD"`
	Timeout                 time.Duration `envconfig:"TIMEOUT" default:"10s"`
	Retries                 int           `envconfig:"RETRIES" default:"2"`
	RetryWait               time.Duration `envconfig:"RETRY_WAIT" default:"200ms"`
}

func (j JiraConfig) Enabled() bool { return j.URL != "" }

// Load reads the given .env files (".env" when none are named) into the
// environment, then processes the environment. Missing files are skipped and
// variables already set win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var err error
	if c.Addr == "" {
		err = multierr.Append(err, errors.New("ADDR must not be empty"))
	}
	if _, perr := zapcore.ParseLevel(c.LogLevel); perr != nil {
		err = multierr.Append(err, fmt.Errorf("LOG_LEVEL: %w", perr))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		err = multierr.Append(err, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}
	if c.DefaultRoom == "" {
		err = multierr.Append(err, errors.New("DEFAULT_ROOM must not be empty"))
	}
	if c.OutboxSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("OUTBOX_SIZE must be positive, got %d", c.OutboxSize))
	}
	if c.Jira.Enabled() {
		if c.Jira.Username == "" {
			err = multierr.Append(err, errors.New("JIRA_USERNAME is required when JIRA_URL is set"))
		}
		if c.Jira.Password == "" {
			err = multierr.Append(err, errors.New("JIRA_PASSWORD is required when JIRA_URL is set"))
		}
		if c.Jira.StoryPointField == "" {
			err = multierr.Append(err, errors.New("JIRA_STORYPOINT_FIELD is required when JIRA_URL is set"))
		}
		if c.Jira.Retries < 0 {
			err = multierr.Append(err, fmt.Errorf("JIRA_RETRIES must not be negative, got %d", c.Jira.Retries))
		}
	}
	return err
}
