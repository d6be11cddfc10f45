package config

import (
	"context"
	"fmt"

	"loopauth/pkg/logging"
	pkgoauth "loopauth/pkg/oauth"
)

// MetadataDiscoverer looks up authorization server metadata for an issuer.
type MetadataDiscoverer interface {
	DiscoverMetadata(ctx context.Context, issuer string) (*pkgoauth.Metadata, error)
}

// ResolveEndpoints fills empty client endpoints from the issuer's metadata.
// Explicitly configured endpoints win. Without an issuer it does nothing.
func (c *Config) ResolveEndpoints(ctx context.Context, d MetadataDiscoverer) error {
	if c.Client.Issuer == "" {
		return nil
	}
	if c.Client.AuthURI != "" && c.Client.TokenURI != "" && c.Client.RevokeURI != "" {
		return nil
	}

	metadata, err := d.DiscoverMetadata(ctx, c.Client.Issuer)
	if err != nil {
		return fmt.Errorf("failed to resolve endpoints for issuer %s: %w", c.Client.Issuer, err)
	}
	if !metadata.SupportsAuthorizationCode() {
		return fmt.Errorf("issuer %s does not support the authorization_code grant", c.Client.Issuer)
	}

	setString(&c.Client.AuthURI, firstEmpty(c.Client.AuthURI, metadata.AuthorizationEndpoint))
	setString(&c.Client.TokenURI, firstEmpty(c.Client.TokenURI, metadata.TokenEndpoint))
	setString(&c.Client.RevokeURI, firstEmpty(c.Client.RevokeURI, metadata.RevocationEndpoint))

	if c.Client.PKCE && !metadata.SupportsPKCE() {
		logging.Warn("ConfigLoader", "Issuer %s does not advertise S256 PKCE support; sending a code challenge anyway", c.Client.Issuer)
	}
	logging.Debug("ConfigLoader", "Resolved endpoints from %s: authorize=%s token=%s",
		c.Client.Issuer, c.Client.AuthURI, c.Client.TokenURI)
	return nil
}

// firstEmpty returns candidate only when current is unset, so setString
// leaves configured values alone.
func firstEmpty(current, candidate string) string {
	if current != "" {
		return ""
	}
	return candidate
}
