package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"loopauth/pkg/logging"
)

const (
	userConfigDir  = ".config/loopauth"
	configFileName = "config.yaml"
)

// osUserHomeDir is a variable so tests can redirect the home directory.
var osUserHomeDir = os.UserHomeDir

// envOverrides holds raw LOOPAUTH_* values. Empty values leave the file
// configuration untouched.
type envOverrides struct {
	Issuer       string        `env:"LOOPAUTH_ISSUER"`
	AuthURI      string        `env:"LOOPAUTH_AUTH_URI"`
	TokenURI     string        `env:"LOOPAUTH_TOKEN_URI"`
	RevokeURI    string        `env:"LOOPAUTH_REVOKE_URI"`
	ClientID     string        `env:"LOOPAUTH_CLIENT_ID"`
	ClientSecret string        `env:"LOOPAUTH_CLIENT_SECRET"`
	RedirectURI  string        `env:"LOOPAUTH_REDIRECT_URI"`
	Scope        string        `env:"LOOPAUTH_SCOPE"`
	Prompt       string        `env:"LOOPAUTH_PROMPT"`
	PKCE         string        `env:"LOOPAUTH_PKCE"`
	Timeout      time.Duration `env:"LOOPAUTH_TIMEOUT"`
	NoBrowser    string        `env:"LOOPAUTH_NO_BROWSER"`
	LogLevel     string        `env:"LOOPAUTH_LOG_LEVEL"`
	LogFormat    string        `env:"LOOPAUTH_LOG_FORMAT"`
}

// GetDefaultConfigPath returns ~/.config/loopauth.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads config.yaml from configPath on top of the defaults and
// then applies LOOPAUTH_* environment overrides. A missing file is not an
// error. An empty configPath means the default directory.
func LoadConfig(configPath string) (Config, error) {
	if configPath == "" {
		var err error
		configPath, err = GetDefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
	}

	config, err := loadFile(filepath.Join(configPath, configFileName))
	if err != nil {
		return Config{}, err
	}
	if err := applyEnv(&config); err != nil {
		return Config{}, err
	}
	return config, nil
}

func loadFile(configFilePath string) (Config, error) {
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		return Config{}, NewConfigurationError(configFilePath, "io", "failed to read configuration file", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, NewConfigurationError(configFilePath, "parse", "malformed configuration file", err)
	}
	logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}

func applyEnv(config *Config) error {
	var raw envOverrides
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	setString(&config.Client.Issuer, raw.Issuer)
	setString(&config.Client.AuthURI, raw.AuthURI)
	setString(&config.Client.TokenURI, raw.TokenURI)
	setString(&config.Client.RevokeURI, raw.RevokeURI)
	setString(&config.Client.ClientID, raw.ClientID)
	setString(&config.Client.ClientSecret, raw.ClientSecret)
	setString(&config.Client.RedirectURI, raw.RedirectURI)
	setString(&config.Client.Scope, raw.Scope)
	setString(&config.Client.Prompt, raw.Prompt)
	setString(&config.Log.Level, raw.LogLevel)
	setString(&config.Log.Format, raw.LogFormat)
	if raw.Timeout != 0 {
		config.Timeout = raw.Timeout
	}
	if err := setBool(&config.Browser.Disabled, "LOOPAUTH_NO_BROWSER", raw.NoBrowser); err != nil {
		return err
	}
	return setBool(&config.Client.PKCE, "LOOPAUTH_PKCE", raw.PKCE)
}

func setBool(dst *bool, name, value string) error {
	if value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parse env: %s: %w", name, err)
	}
	*dst = b
	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
