package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ProviderConfig configures the fake OAuth provider.
type ProviderConfig struct {
	// ClientID is the expected client_id (defaults to "test-client").
	ClientID string

	// ClientSecret is the expected client_secret (defaults to "test-secret").
	ClientSecret string

	// Deny makes /authorize redirect back with this error instead of a code.
	Deny string

	// DenyDescription is sent as error_description alongside Deny.
	DenyDescription string

	// TokenStatus overrides the token endpoint's status code when non-zero.
	TokenStatus int

	// TokenBody overrides the token endpoint's response body when non-empty.
	TokenBody string

	// TokenDelay delays every token endpoint response.
	TokenDelay time.Duration

	// AccessToken is the token issued for valid codes (defaults to a random value).
	AccessToken string

	// TokenLifetime is reported as expires_in (defaults to one hour).
	TokenLifetime time.Duration
}

// Exchange records one request to the token endpoint.
type Exchange struct {
	Form        url.Values
	ContentType string
}

// Provider is an in-process OAuth authorization server. Its /authorize
// endpoint redirects straight back to the redirect_uri, standing in for the
// user's consent in the browser.
type Provider struct {
	config ProviderConfig
	server *httptest.Server

	mu        sync.Mutex
	codes     map[string]issuedCode
	exchanges []Exchange
	revoked   []string
}

type issuedCode struct {
	redirectURI   string
	codeChallenge string
}

// NewProvider starts a fake provider. Call Close when done.
func NewProvider(config ProviderConfig) *Provider {
	if config.ClientID == "" {
		config.ClientID = "test-client"
	}
	if config.ClientSecret == "" {
		config.ClientSecret = "test-secret"
	}
	if config.TokenLifetime == 0 {
		config.TokenLifetime = time.Hour
	}

	p := &Provider{
		config: config,
		codes:  make(map[string]issuedCode),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/authorize", p.handleAuthorize)
	mux.HandleFunc("/token", p.handleToken)
	mux.HandleFunc("/revoke", p.handleRevoke)
	mux.HandleFunc("/.well-known/oauth-authorization-server", p.handleMetadata)
	p.server = httptest.NewServer(mux)
	return p
}

// Close shuts the provider down.
func (p *Provider) Close() {
	p.server.Close()
}

// AuthorizeURL returns the authorization endpoint.
func (p *Provider) AuthorizeURL() string {
	return p.server.URL + "/authorize"
}

// TokenURL returns the token endpoint.
func (p *Provider) TokenURL() string {
	return p.server.URL + "/token"
}

// RevokeURL returns the revocation endpoint.
func (p *Provider) RevokeURL() string {
	return p.server.URL + "/revoke"
}

// ClientID returns the client ID the provider accepts.
func (p *Provider) ClientID() string {
	return p.config.ClientID
}

// ClientSecret returns the client secret the provider accepts.
func (p *Provider) ClientSecret() string {
	return p.config.ClientSecret
}

// Issuer returns the provider's base URL, which serves discovery metadata.
func (p *Provider) Issuer() string {
	return p.server.URL
}

// IssueCode registers a code for redirectURI without going through /authorize.
func (p *Provider) IssueCode(redirectURI string) string {
	return p.issueCode(issuedCode{redirectURI: redirectURI})
}

func (p *Provider) issueCode(issued issuedCode) string {
	code := uuid.NewString()
	p.mu.Lock()
	p.codes[code] = issued
	p.mu.Unlock()
	return code
}

// Exchanges returns the token endpoint requests received so far.
func (p *Provider) Exchanges() []Exchange {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Exchange, len(p.exchanges))
	copy(out, p.exchanges)
	return out
}

// ExchangeCount returns how many token endpoint requests were received.
func (p *Provider) ExchangeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.exchanges)
}

// Revoked returns the tokens revoked so far.
func (p *Provider) Revoked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.revoked))
	copy(out, p.revoked)
	return out
}

func (p *Provider) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	redirectURI := query.Get("redirect_uri")
	target, err := url.Parse(redirectURI)
	if err != nil || redirectURI == "" {
		http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
		return
	}
	if query.Get("response_type") != "code" {
		http.Error(w, "unsupported response_type", http.StatusBadRequest)
		return
	}
	if query.Get("client_id") != p.config.ClientID {
		http.Error(w, "unknown client", http.StatusBadRequest)
		return
	}

	params := url.Values{}
	if state := query.Get("state"); state != "" {
		params.Set("state", state)
	}
	if p.config.Deny != "" {
		params.Set("error", p.config.Deny)
		params.Set("error_description", p.config.DenyDescription)
	} else {
		if method := query.Get("code_challenge_method"); method != "" && method != "S256" {
			http.Error(w, "unsupported code_challenge_method", http.StatusBadRequest)
			return
		}
		params.Set("code", p.issueCode(issuedCode{
			redirectURI:   redirectURI,
			codeChallenge: query.Get("code_challenge"),
		}))
	}
	target.RawQuery = params.Encode()

	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (p *Provider) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.exchanges = append(p.exchanges, Exchange{
		Form:        r.PostForm,
		ContentType: r.Header.Get("Content-Type"),
	})
	p.mu.Unlock()

	if p.config.TokenDelay > 0 {
		time.Sleep(p.config.TokenDelay)
	}

	if p.config.TokenStatus != 0 || p.config.TokenBody != "" {
		status := p.config.TokenStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, p.config.TokenBody)
		return
	}

	if r.PostForm.Get("grant_type") != "authorization_code" {
		p.tokenError(w, http.StatusBadRequest, "unsupported_grant_type", "only authorization_code is supported")
		return
	}
	if r.PostForm.Get("client_id") != p.config.ClientID || r.PostForm.Get("client_secret") != p.config.ClientSecret {
		p.tokenError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
		return
	}

	code := r.PostForm.Get("code")
	p.mu.Lock()
	issued, ok := p.codes[code]
	delete(p.codes, code)
	p.mu.Unlock()
	if !ok {
		p.tokenError(w, http.StatusBadRequest, "invalid_grant", "authorization code is invalid or already used")
		return
	}
	if issued.redirectURI != r.PostForm.Get("redirect_uri") {
		p.tokenError(w, http.StatusBadRequest, "invalid_grant", "redirect_uri mismatch")
		return
	}
	if issued.codeChallenge != "" && oauth2.S256ChallengeFromVerifier(r.PostForm.Get("code_verifier")) != issued.codeChallenge {
		p.tokenError(w, http.StatusBadRequest, "invalid_grant", "code_verifier does not match code_challenge")
		return
	}

	accessToken := p.config.AccessToken
	if accessToken == "" {
		accessToken = uuid.NewString()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token":  accessToken,
		"token_type":    "bearer",
		"expires_in":    int(p.config.TokenLifetime.Seconds()),
		"refresh_token": uuid.NewString(),
		"scope":         "create",
	})
}

func (p *Provider) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("token") == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}
	p.mu.Lock()
	p.revoked = append(p.revoked, r.PostForm.Get("token"))
	p.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (p *Provider) handleMetadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"issuer":                           p.Issuer(),
		"authorization_endpoint":           p.AuthorizeURL(),
		"token_endpoint":                   p.TokenURL(),
		"revocation_endpoint":              p.RevokeURL(),
		"response_types_supported":         []string{"code"},
		"grant_types_supported":            []string{"authorization_code"},
		"code_challenge_methods_supported": []string{"S256"},
	})
}

func (p *Provider) tokenError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}
