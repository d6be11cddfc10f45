package config

import "loopauth/internal/oauth"

const (
	// DefaultLogLevel is the log level used when none is configured.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the log format used when none is configured.
	DefaultLogFormat = "text"
)

// GetDefaultConfig returns the default configuration. The client endpoints
// have no defaults and must be configured.
func GetDefaultConfig() Config {
	return Config{
		Client: ClientConfig{
			RedirectURI: oauth.DefaultRedirectURI,
		},
		Timeout: oauth.DefaultCallbackTimeout,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
