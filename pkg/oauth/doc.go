// Package oauth provides provider-independent OAuth 2.0 helpers for clients:
// authorization server metadata discovery (RFC 8414 with OpenID Connect
// fallback) and PKCE challenge generation (RFC 7636).
//
// # Usage
//
//	client := oauth.NewClient()
//	metadata, err := client.DiscoverMetadata(ctx, "https://login.example.com")
//
//	pkce := oauth.GeneratePKCE()
package oauth
