package oauth

import (
	"fmt"
	"time"
)

// BindError indicates the callback server could not listen on the redirect
// address. The flow never starts.
type BindError struct {
	// Addr is the host:port that could not be bound.
	Addr string
	// Err is the underlying listen error.
	Err error
}

// Error implements the error interface.
func (e *BindError) Error() string {
	return fmt.Sprintf("failed to start callback server on %s: %v", e.Addr, e.Err)
}

// Unwrap returns the underlying error.
func (e *BindError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is() to match any BindError.
func (e *BindError) Is(target error) bool {
	_, ok := target.(*BindError)
	return ok
}

// BrowserLaunchError indicates the system browser could not be opened.
// It is never returned from a flow; the user can still navigate manually.
type BrowserLaunchError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *BrowserLaunchError) Error() string {
	return fmt.Sprintf("failed to open browser: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *BrowserLaunchError) Unwrap() error {
	return e.Err
}

// AuthDeniedError indicates the provider redirected back with an error
// parameter instead of an authorization code.
type AuthDeniedError struct {
	// Code is the provider's error code, e.g. "access_denied".
	Code string
	// Description is the provider's human-readable error_description.
	Description string
}

// Error implements the error interface.
func (e *AuthDeniedError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization failed: %s - %s", e.Code, e.Description)
	}
	return fmt.Sprintf("authorization failed: %s", e.Code)
}

// Is allows errors.Is() to match any AuthDeniedError.
func (e *AuthDeniedError) Is(target error) bool {
	_, ok := target.(*AuthDeniedError)
	return ok
}

// AuthTimeoutError indicates no callback arrived before the deadline.
type AuthTimeoutError struct {
	Timeout time.Duration
}

// Error implements the error interface.
func (e *AuthTimeoutError) Error() string {
	return fmt.Sprintf("authentication timed out: no callback received within %s", e.Timeout)
}

// Is allows errors.Is() to match any AuthTimeoutError.
func (e *AuthTimeoutError) Is(target error) bool {
	_, ok := target.(*AuthTimeoutError)
	return ok
}

// AuthTransportError indicates a network failure during the token exchange,
// or that the listener stopped without completing a callback.
type AuthTransportError struct {
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *AuthTransportError) Error() string {
	return fmt.Sprintf("authentication transport failure: %s", e.Detail)
}

// Unwrap returns the underlying error, if any.
func (e *AuthTransportError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is() to match any AuthTransportError.
func (e *AuthTransportError) Is(target error) bool {
	_, ok := target.(*AuthTransportError)
	return ok
}

// TokenValidationError indicates the token endpoint's response was rejected
// by the response validator. The raw response is kept for diagnosis.
type TokenValidationError struct {
	StatusCode int
	Body       []byte
	Reason     error
}

// Error implements the error interface.
func (e *TokenValidationError) Error() string {
	return fmt.Sprintf("OAuth failed\nstatus_code: %d\ncontent: %s", e.StatusCode, e.Body)
}

// Unwrap returns the validator's error.
func (e *TokenValidationError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to match any TokenValidationError.
func (e *TokenValidationError) Is(target error) bool {
	_, ok := target.(*TokenValidationError)
	return ok
}
