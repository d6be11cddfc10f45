package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultHTTPTimeout is the default timeout for metadata requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultMetadataCacheTTL is how long discovered metadata is reused.
	DefaultMetadataCacheTTL = 30 * time.Minute

	maxMetadataBytes = 1 << 20

	oauthWellKnown = "/.well-known/oauth-authorization-server"
	oidcWellKnown  = "/.well-known/openid-configuration"
)

type cachedMetadata struct {
	metadata  *Metadata
	fetchedAt time.Time
}

// Client looks up authorization server metadata for an issuer.
// It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	ttl        time.Duration

	mu    sync.RWMutex
	cache map[string]cachedMetadata
	group singleflight.Group
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for metadata requests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetadataCacheTTL sets how long metadata is cached per issuer.
func WithMetadataCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.ttl = ttl
	}
}

// NewClient creates a Client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		logger:     slog.Default(),
		ttl:        DefaultMetadataCacheTTL,
		cache:      make(map[string]cachedMetadata),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DiscoverMetadata returns the issuer's metadata. RFC 8414 is tried first,
// then OpenID Connect discovery. Concurrent lookups for one issuer share a
// single fetch.
func (c *Client) DiscoverMetadata(ctx context.Context, issuer string) (*Metadata, error) {
	issuer = strings.TrimSuffix(issuer, "/")
	if m, ok := c.lookup(issuer); ok {
		return m, nil
	}

	v, err, _ := c.group.Do(issuer, func() (any, error) {
		if m, ok := c.lookup(issuer); ok {
			return m, nil
		}
		return c.discover(ctx, issuer)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Metadata), nil
}

// ClearMetadataCache drops all cached metadata.
func (c *Client) ClearMetadataCache() {
	c.mu.Lock()
	c.cache = make(map[string]cachedMetadata)
	c.mu.Unlock()
}

func (c *Client) lookup(issuer string) (*Metadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[issuer]
	if !ok || time.Since(entry.fetchedAt) >= c.ttl {
		return nil, false
	}
	return entry.metadata, true
}

func (c *Client) discover(ctx context.Context, issuer string) (*Metadata, error) {
	var errs []error
	for _, candidate := range wellKnownURLs(issuer) {
		m, err := c.fetch(ctx, candidate)
		if err != nil {
			c.logger.Debug("Metadata lookup failed", "url", candidate, "error", err)
			errs = append(errs, err)
			continue
		}

		c.mu.Lock()
		c.cache[issuer] = cachedMetadata{metadata: m, fetchedAt: time.Now()}
		c.mu.Unlock()
		c.logger.Debug("Discovered OAuth metadata",
			"issuer", issuer,
			"authorization_endpoint", m.AuthorizationEndpoint,
			"token_endpoint", m.TokenEndpoint)
		return m, nil
	}
	return nil, fmt.Errorf("failed to discover OAuth metadata for %s: %w", issuer, errors.Join(errs...))
}

// wellKnownURLs lists the metadata locations for issuer in lookup order.
// For an issuer with a path, RFC 8414 puts the well-known segment before the
// path while OpenID Connect appends it.
func wellKnownURLs(issuer string) []string {
	urls := []string{issuer + oauthWellKnown}
	if u, err := url.Parse(issuer); err == nil && u.Path != "" && u.Path != "/" {
		insert := *u
		insert.Path = oauthWellKnown + u.Path
		urls = []string{insert.String(), issuer + oauthWellKnown}
	}
	return append(urls, issuer+oidcWellKnown)
}

func (c *Client) fetch(ctx context.Context, metadataURL string) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", metadataURL, resp.StatusCode)
	}

	var m Metadata
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetadataBytes)).Decode(&m); err != nil {
		return nil, fmt.Errorf("%s: invalid metadata: %w", metadataURL, err)
	}
	if m.AuthorizationEndpoint == "" || m.TokenEndpoint == "" {
		return nil, fmt.Errorf("%s: metadata is missing authorization or token endpoint", metadataURL)
	}
	return &m, nil
}
