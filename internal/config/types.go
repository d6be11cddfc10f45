package config

import (
	"time"

	"loopauth/internal/oauth"
)

// Config is the top-level configuration structure for loopauth.
type Config struct {
	Client  ClientConfig  `yaml:"client"`
	Timeout time.Duration `yaml:"timeout,omitempty"` // How long to wait for the callback (default: 5m)
	Browser BrowserConfig `yaml:"browser,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`
}

// ClientConfig describes the OAuth client registration and the provider's
// endpoints.
type ClientConfig struct {
	Issuer       string `yaml:"issuer,omitempty"` // Discover missing endpoints from the issuer's metadata
	AuthURI      string `yaml:"authUri"`
	TokenURI     string `yaml:"tokenUri"`
	RevokeURI    string `yaml:"revokeUri,omitempty"`
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret,omitempty"`
	RedirectURI  string `yaml:"redirectUri,omitempty"` // Loopback callback (default: http://localhost:8080/callback)
	Scope        string `yaml:"scope,omitempty"`
	Prompt       string `yaml:"prompt,omitempty"` // e.g. "login" to force re-authentication
	PKCE         bool   `yaml:"pkce,omitempty"`   // Send an S256 code challenge
}

// BrowserConfig controls how the authorization URL is presented.
type BrowserConfig struct {
	Disabled bool `yaml:"disabled,omitempty"` // Print the URL instead of opening a browser
}

// LogConfig controls CLI logging.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error (default: info)
	Format string `yaml:"format,omitempty"` // text or json (default: text)
}

// ToFlowConfig converts the client section into the flow parameters used by
// the oauth package. state is passed through unchanged.
func (c Config) ToFlowConfig(state string) oauth.FlowConfig {
	return oauth.FlowConfig{
		AuthURI:      c.Client.AuthURI,
		TokenURI:     c.Client.TokenURI,
		RevokeURI:    c.Client.RevokeURI,
		ClientID:     c.Client.ClientID,
		ClientSecret: c.Client.ClientSecret,
		RedirectURI:  c.Client.RedirectURI,
		Scope:        c.Client.Scope,
		Prompt:       c.Client.Prompt,
		State:        state,
	}
}
