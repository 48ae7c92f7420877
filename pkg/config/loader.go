package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// envAliases are the bare variable names honoured next to the TASKLINE_ prefix.
var envAliases = map[string]string{
	"clickup.client_id":     "CLIENT_ID",
	"clickup.client_secret": "CLIENT_SECRET",
	"clickup.redirect_uri":  "REDIRECT_URI",
	"server.username":       "DASH_USERNAME",
	"server.password":       "DASH_PASSWORD",
}

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// ConfigFileUsed returns the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Load loads configuration with precedence defaults < config file < env vars.
// CLI flags are applied by the caller on the returned value.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	l.setupViper(cfg)

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.DataDir = expandTilde(cfg.DataDir)
	cfg.TokenFile = expandTilde(cfg.TokenFile)
	cfg.RecordsFile = expandTilde(cfg.RecordsFile)
	cfg.Calendar.CredentialsFile = expandTilde(cfg.Calendar.CredentialsFile)
	cfg.Calendar.TokenFile = expandTilde(cfg.Calendar.TokenFile)
	cfg.fillPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		if dir, err := GetXdgHome(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TASKLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("token_file", cfg.TokenFile)
	v.SetDefault("records_file", cfg.RecordsFile)
	v.SetDefault("clickup.client_id", cfg.ClickUp.ClientID)
	v.SetDefault("clickup.client_secret", cfg.ClickUp.ClientSecret)
	v.SetDefault("clickup.redirect_uri", cfg.ClickUp.RedirectURI)
	v.SetDefault("clickup.base_url", cfg.ClickUp.BaseURL)
	v.SetDefault("clickup.auth_url", cfg.ClickUp.AuthURL)
	v.SetDefault("clickup.timeout", cfg.ClickUp.Timeout)
	v.SetDefault("clickup.max_pages", cfg.ClickUp.MaxPages)
	v.SetDefault("calendar.name", cfg.Calendar.Name)
	v.SetDefault("calendar.credentials_file", cfg.Calendar.CredentialsFile)
	v.SetDefault("calendar.token_file", cfg.Calendar.TokenFile)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.username", cfg.Server.Username)
	v.SetDefault("server.password", cfg.Server.Password)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	for key, alias := range envAliases {
		prefixed := "TASKLINE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, alias)
	}
	v.AutomaticEnv()
}

// Save persists the default calendar name into the config file, keeping any
// other settings already present there.
func Save(path string, calendarName string) error {
	if path == "" {
		dir, err := GetXdgHome()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, configName+".yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	v.Set("calendar.name", calendarName)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}
