// Package config loads the loopauth configuration.
//
// Configuration is read from config.yaml in a single directory. The default
// directory is ~/.config/loopauth; commands accept --config to use another.
// A missing file is not an error: defaults apply and every value can be
// supplied through the environment instead.
//
// # File Format
//
//	client:
//	  authUri: https://login.example.com/services/oauth2/authorize
//	  tokenUri: https://login.example.com/services/oauth2/token
//	  revokeUri: https://login.example.com/services/oauth2/revoke
//	  clientId: my-connected-app
//	  clientSecret: s3cr3t
//	  redirectUri: http://localhost:8080/callback
//	  scope: refresh_token api
//	  prompt: login
//	timeout: 5m
//	browser:
//	  disabled: false
//	log:
//	  level: info
//	  format: text
//
// # Environment Overrides
//
// Non-empty LOOPAUTH_* variables take precedence over the file:
// LOOPAUTH_AUTH_URI, LOOPAUTH_TOKEN_URI, LOOPAUTH_REVOKE_URI,
// LOOPAUTH_CLIENT_ID, LOOPAUTH_CLIENT_SECRET, LOOPAUTH_REDIRECT_URI,
// LOOPAUTH_SCOPE, LOOPAUTH_PROMPT, LOOPAUTH_TIMEOUT, LOOPAUTH_NO_BROWSER,
// LOOPAUTH_LOG_LEVEL and LOOPAUTH_LOG_FORMAT.
//
// # Validation
//
// Config.Validate reports every problem at once as ValidationErrors, so a
// user fixing a config file sees the full list in one run.
package config
