// Package mock provides an in-process OAuth 2.0 authorization server for
// tests.
//
// Provider serves /authorize, /token, /revoke and RFC 8414 metadata under
// /.well-known/oauth-authorization-server. Its /authorize endpoint skips the
// consent screen and redirects straight back to the redirect_uri with a code,
// or with an error when ProviderConfig.Deny is set, so a test only needs an
// HTTP client to play the part of the browser.
//
// Codes are single use and bound to the redirect_uri and, when the request
// carried one, to the S256 code_challenge.
//
//	p := mock.NewProvider(mock.ProviderConfig{AccessToken: "T"})
//	defer p.Close()
package mock
