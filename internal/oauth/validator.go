package oauth

import (
	"errors"
	"fmt"
	"net/http"
)

// ResponseValidator decides whether a token endpoint response is acceptable.
// A non-nil error fails the flow with a *TokenValidationError.
type ResponseValidator func(*TokenResult) error

// ValidateStatusOK accepts only HTTP 200 responses whose JSON body carries an
// access token.
func ValidateStatusOK(res *TokenResult) error {
	if res == nil {
		return errors.New("no token response")
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("token endpoint returned status %d", res.StatusCode)
	}
	if res.Values == nil {
		return errors.New("token response is not a JSON object")
	}
	if res.AccessToken() == "" {
		return errors.New("token response has no access_token")
	}
	return nil
}

// ValidateStatusOnly accepts any HTTP 200 response.
func ValidateStatusOnly(res *TokenResult) error {
	if res == nil {
		return errors.New("no token response")
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("token endpoint returned status %d", res.StatusCode)
	}
	return nil
}
