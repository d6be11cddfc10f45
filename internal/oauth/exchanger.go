package oauth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultHTTPTimeout is the default timeout for token endpoint requests.
const DefaultHTTPTimeout = 30 * time.Second

// maxResponseBytes caps how much of a token endpoint response is read.
const maxResponseBytes = 1 << 20

// Exchanger swaps an authorization code for a token.
type Exchanger interface {
	// Exchange returns the token endpoint's response whatever its status code.
	// An error means no response was received.
	Exchange(ctx context.Context, cfg FlowConfig, code string) (*TokenResult, error)
}

// TokenExchanger talks to the provider's token and revocation endpoints.
// It is safe for concurrent use.
type TokenExchanger struct {
	httpClient *http.Client
}

// ExchangerOption configures a TokenExchanger.
type ExchangerOption func(*TokenExchanger)

// WithHTTPClient sets the HTTP client used for token endpoint requests.
func WithHTTPClient(c *http.Client) ExchangerOption {
	return func(e *TokenExchanger) {
		if c != nil {
			e.httpClient = c
		}
	}
}

// NewTokenExchanger creates a TokenExchanger.
func NewTokenExchanger(opts ...ExchangerOption) *TokenExchanger {
	e := &TokenExchanger{
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Exchange posts the authorization code to the token endpoint.
func (e *TokenExchanger) Exchange(ctx context.Context, cfg FlowConfig, code string) (*TokenResult, error) {
	data := url.Values{
		"client_id":     {cfg.ClientID},
		"client_secret": {cfg.ClientSecret},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {cfg.RedirectURI},
		"code":          {code},
	}
	if cfg.CodeVerifier != "" {
		data.Set("code_verifier", cfg.CodeVerifier)
	}

	status, body, err := e.postForm(ctx, cfg.TokenURI, data)
	if err != nil {
		return nil, fmt.Errorf("token exchange request failed: %w", err)
	}
	return newTokenResult(status, body), nil
}

// Revoke asks the provider to revoke a token. Any non-2xx status is an error.
func (e *TokenExchanger) Revoke(ctx context.Context, cfg FlowConfig, token string) error {
	if cfg.RevokeURI == "" {
		return fmt.Errorf("no revoke URI configured")
	}
	if token == "" {
		return fmt.Errorf("token is required")
	}

	status, body, err := e.postForm(ctx, cfg.RevokeURI, url.Values{"token": {token}})
	if err != nil {
		return fmt.Errorf("token revocation request failed: %w", err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("token revocation failed with status %d: %s", status, string(body))
	}
	return nil
}

func (e *TokenExchanger) postForm(ctx context.Context, endpoint string, data url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}
