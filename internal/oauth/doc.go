// Package oauth implements the OAuth 2.0 authorization-code grant for
// command-line use, with a transient loopback HTTP server as the redirect
// target.
//
// # Flow
//
// An Authorizer drives one round trip:
//
//  1. bind a CallbackServer on the redirect URI's host and port
//  2. open the system browser at the provider's authorization URL
//  3. arm a TimeoutGuard that stops the server when the deadline passes
//  4. serve until the first callback, the timeout, or cancellation of the
//     caller's context resolves the session
//  5. classify the outcome and validate the token response
//
// The callback handler exchanges the authorization code inline so the page
// shown in the browser reflects the result of the exchange. After replying it
// stops the server from a separate goroutine; stopping an http.Server from its
// own handler would wait on itself.
//
// # Errors
//
// Run returns typed errors that callers inspect with errors.As:
//
//   - *BindError: the redirect port is unavailable
//   - *AuthDeniedError: the provider redirected back with an error
//   - *AuthTimeoutError: no callback arrived in time
//   - *AuthTransportError: the token endpoint could not be reached
//   - *TokenValidationError: the token response was rejected
//
// A *BrowserLaunchError is only logged; the user can open the URL by hand.
//
// # Usage
//
//	cfg := oauth.FlowConfig{
//	    AuthURI:     "https://login.example.com/oauth2/authorize",
//	    TokenURI:    "https://login.example.com/oauth2/token",
//	    ClientID:    "my-client",
//	    RedirectURI: "http://localhost:8080/callback",
//	}
//	token, err := oauth.NewAuthorizer().Run(ctx, cfg, 5*time.Minute)
package oauth
