package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	xdgAppName = "taskline"
	configName = "config"

	DefaultCalendar = "Tasks"
	DefaultBaseURL  = "https://api.clickup.com/api/v2"
	DefaultAuthURL  = "https://app.clickup.com/api"
)

// Config is the root configuration for taskline.
type Config struct {
	// DataDir holds the token, records file and calendar state (default: ~/.config/taskline).
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// TokenFile is the persisted ClickUp OAuth token (default: <data_dir>/clickup_token.json).
	TokenFile string `mapstructure:"token_file" yaml:"token_file"`

	// RecordsFile is the flat task export read by timeline and serve (default: <data_dir>/tasks.csv).
	RecordsFile string `mapstructure:"records_file" yaml:"records_file"`

	ClickUp  ClickUpConfig  `mapstructure:"clickup" yaml:"clickup"`
	Calendar CalendarConfig `mapstructure:"calendar" yaml:"calendar"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// ClickUpConfig holds the OAuth application and API settings.
type ClickUpConfig struct {
	ClientID     string        `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string        `mapstructure:"client_secret" yaml:"client_secret"`
	RedirectURI  string        `mapstructure:"redirect_uri" yaml:"redirect_uri"`
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
	AuthURL      string        `mapstructure:"auth_url" yaml:"auth_url"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// MaxPages bounds task pagination per list; 0 means until the API reports the last page.
	MaxPages int `mapstructure:"max_pages" yaml:"max_pages"`
}

// CalendarConfig holds the Google Calendar sink settings.
type CalendarConfig struct {
	Name string `mapstructure:"name" yaml:"name"`

	// CredentialsFile is the Google client secrets JSON (default: <data_dir>/credentials.json).
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`

	// TokenFile is the persisted Google OAuth token (default: <data_dir>/google_token.json).
	TokenFile string `mapstructure:"token_file" yaml:"token_file"`
}

// ServerConfig holds the timeline HTTP API settings.
type ServerConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	dataDir := "."
	if dir, err := GetXdgHome(); err == nil {
		dataDir = dir
	}
	return &Config{
		DataDir: dataDir,
		ClickUp: ClickUpConfig{
			BaseURL: DefaultBaseURL,
			AuthURL: DefaultAuthURL,
			Timeout: 30 * time.Second,
		},
		Calendar: CalendarConfig{Name: DefaultCalendar},
		Server:   ServerConfig{Addr: ":8050"},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
}

// GetXdgHome returns the taskline directory under the user's config home.
func GetXdgHome() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, xdgAppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

// Path joins name onto the data directory.
func (c *Config) Path(name string) string {
	return filepath.Join(c.DataDir, name)
}

// fillPaths derives file locations that were left empty from DataDir.
func (c *Config) fillPaths() {
	if c.TokenFile == "" {
		c.TokenFile = c.Path("clickup_token.json")
	}
	if c.RecordsFile == "" {
		c.RecordsFile = c.Path("tasks.csv")
	}
	if c.Calendar.CredentialsFile == "" {
		c.Calendar.CredentialsFile = c.Path("credentials.json")
	}
	if c.Calendar.TokenFile == "" {
		c.Calendar.TokenFile = c.Path("google_token.json")
	}
	if c.Calendar.Name == "" {
		c.Calendar.Name = DefaultCalendar
	}
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.ClickUp.BaseURL == "" {
		return fmt.Errorf("clickup.base_url must not be empty")
	}
	if c.ClickUp.Timeout < 0 {
		return fmt.Errorf("clickup.timeout must not be negative")
	}
	if c.ClickUp.MaxPages < 0 {
		return fmt.Errorf("clickup.max_pages must not be negative")
	}
	return nil
}

// EnsureDataDir creates the data directory.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
