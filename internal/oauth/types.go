package oauth

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultRedirectURI is the loopback redirect used when none is configured.
const DefaultRedirectURI = "http://localhost:8080/callback"

// FlowConfig describes the OAuth client and provider endpoints for a single
// authorization-code flow. It is treated as immutable once a flow starts.
type FlowConfig struct {
	// AuthURI is the provider's authorization endpoint, without query parameters.
	AuthURI string

	// TokenURI is the provider's token endpoint.
	TokenURI string

	// RevokeURI is the provider's token revocation endpoint (optional).
	RevokeURI string

	// ClientID identifies the OAuth client.
	ClientID string

	// ClientSecret authenticates the OAuth client at the token endpoint.
	ClientSecret string

	// RedirectURI is the loopback callback URL. Its host and port are bound
	// by the callback server and its path is the only path served.
	RedirectURI string

	// Scope is the space-separated scope string requested from the provider.
	Scope string

	// Prompt is passed through as the "prompt" parameter when set (e.g. "login").
	Prompt string

	// State is sent with the authorization request and verified on callback
	// when non-empty.
	State string

	// CodeVerifier enables PKCE (RFC 7636) when set: the S256 challenge is
	// sent with the authorization request and the verifier with the code.
	CodeVerifier string
}

// Validate checks that the configuration can drive a flow.
func (c FlowConfig) Validate() error {
	var missing []string
	if c.AuthURI == "" {
		missing = append(missing, "auth URI")
	}
	if c.TokenURI == "" {
		missing = append(missing, "token URI")
	}
	if c.ClientID == "" {
		missing = append(missing, "client ID")
	}
	if c.RedirectURI == "" {
		missing = append(missing, "redirect URI")
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid flow config: missing %s", strings.Join(missing, ", "))
	}

	if _, err := c.CallbackAddr(); err != nil {
		return fmt.Errorf("invalid flow config: %w", err)
	}
	return nil
}

// CallbackAddr returns the host:port the callback server must listen on.
func (c FlowConfig) CallbackAddr() (string, error) {
	u, err := url.Parse(c.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URI %q: %w", c.RedirectURI, err)
	}
	if u.Scheme != "http" {
		return "", fmt.Errorf("redirect URI %q must use http", c.RedirectURI)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("redirect URI %q has no host", c.RedirectURI)
	}
	port := u.Port()
	if port == "" {
		port = "80"
	}
	return net.JoinHostPort(host, port), nil
}

// CallbackPath returns the path component of the redirect URI.
func (c FlowConfig) CallbackPath() string {
	u, err := url.Parse(c.RedirectURI)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// OAuth2Config maps the flow configuration onto an x/oauth2 client config.
func (c FlowConfig) OAuth2Config() *oauth2.Config {
	var scopes []string
	if c.Scope != "" {
		scopes = strings.Fields(c.Scope)
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthURI,
			TokenURL: c.TokenURI,
		},
	}
}

// AuthorizationURL returns the URL the user's browser is sent to.
func (c FlowConfig) AuthorizationURL() string {
	var opts []oauth2.AuthCodeOption
	if c.Prompt != "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", c.Prompt))
	}
	if c.CodeVerifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(c.CodeVerifier))
	}
	return c.OAuth2Config().AuthCodeURL(c.State, opts...)
}

// TokenResult is the token endpoint's response to a code exchange.
// The body is kept verbatim; Values holds the decoded JSON object when the
// body is one.
type TokenResult struct {
	StatusCode int
	Body       []byte
	Values     map[string]any
}

// newTokenResult decodes body best-effort; a non-JSON body leaves Values nil.
func newTokenResult(status int, body []byte) *TokenResult {
	res := &TokenResult{StatusCode: status, Body: body}
	var values map[string]any
	if err := json.Unmarshal(body, &values); err == nil {
		res.Values = values
	}
	return res
}

// String returns the string value stored under key, if any.
func (r *TokenResult) String(key string) string {
	if r == nil || r.Values == nil {
		return ""
	}
	switch v := r.Values[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// AccessToken returns the access_token field.
func (r *TokenResult) AccessToken() string {
	return r.String("access_token")
}

// ExpiresIn returns the expires_in field, or zero when absent or unparsable.
func (r *TokenResult) ExpiresIn() time.Duration {
	raw := r.String("expires_in")
	if raw == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// Token converts the payload to an oauth2.Token. Expiry is computed relative
// to now; the full payload is attached as extra data.
func (r *TokenResult) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  r.AccessToken(),
		TokenType:    r.String("token_type"),
		RefreshToken: r.String("refresh_token"),
	}
	if d := r.ExpiresIn(); d > 0 {
		tok.Expiry = time.Now().Add(d)
	}
	if r.Values != nil {
		tok = tok.WithExtra(r.Values)
	}
	return tok
}

// OutcomeKind tags a CallbackOutcome.
type OutcomeKind int

const (
	// OutcomeNone means the session has not been resolved.
	OutcomeNone OutcomeKind = iota
	// OutcomeSuccess means a code was received and the exchange returned a response.
	OutcomeSuccess
	// OutcomeProviderError means the provider redirected back with an error.
	OutcomeProviderError
	// OutcomeTimedOut means no callback arrived before the deadline.
	OutcomeTimedOut
	// OutcomeTransportFailure means the exchange or the listener failed at the network level.
	OutcomeTransportFailure
	// OutcomeInterrupted means the caller cancelled the flow.
	OutcomeInterrupted
)

// String returns the outcome kind name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeProviderError:
		return "provider_error"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeTransportFailure:
		return "transport_failure"
	case OutcomeInterrupted:
		return "interrupted"
	default:
		return "none"
	}
}

// CallbackOutcome is the terminal result of a flow session.
// Only the fields relevant to Kind are set.
type CallbackOutcome struct {
	Kind OutcomeKind

	// Code and Token are set for OutcomeSuccess.
	Code  string
	Token *TokenResult

	// Error and Description are set for OutcomeProviderError.
	Error       string
	Description string

	// Detail is set for OutcomeTransportFailure.
	Detail string
}
