package config

import (
	"fmt"
	"net/url"
	"strings"

	"loopauth/internal/oauth"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(field, value, entityType string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("is required for %s", entityType),
		}
	}
	return nil
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateURL checks that value is an absolute URL with one of the given schemes.
func ValidateURL(field, value string, schemes ...string) error {
	u, err := url.Parse(value)
	if err != nil || u.Host == "" {
		return ValidationError{Field: field, Value: value, Message: "must be an absolute URL"}
	}
	if err := ValidateOneOf(field, u.Scheme, schemes); err != nil {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("scheme must be one of: %s", strings.Join(schemes, ", ")),
		}
	}
	return nil
}

// Validate checks the configuration for a login flow. All problems are
// reported together.
func (c Config) Validate() error {
	var errs ValidationErrors
	collect := func(err error) {
		if ve, ok := err.(ValidationError); ok {
			errs = append(errs, ve)
		}
	}

	collect(ValidateRequired("client.clientId", c.Client.ClientID, "login"))
	if c.Client.Issuer != "" {
		collect(ValidateURL("client.issuer", c.Client.Issuer, "http", "https"))
	}
	validateEndpoint := func(field, value string) {
		switch {
		case value != "":
			collect(ValidateURL(field, value, "http", "https"))
		case c.Client.Issuer == "":
			collect(ValidateRequired(field, value, "login without an issuer"))
		}
	}
	validateEndpoint("client.authUri", c.Client.AuthURI)
	validateEndpoint("client.tokenUri", c.Client.TokenURI)
	if c.Client.RevokeURI != "" {
		collect(ValidateURL("client.revokeUri", c.Client.RevokeURI, "http", "https"))
	}

	flow := oauth.FlowConfig{RedirectURI: c.Client.RedirectURI}
	if _, err := flow.CallbackAddr(); err != nil {
		errs.Add("client.redirectUri", err.Error(), c.Client.RedirectURI)
	}

	if c.Timeout < 0 {
		errs.Add("timeout", "must not be negative", c.Timeout)
	}
	collect(ValidateOneOf("log.level", c.Log.Level, []string{"debug", "info", "warn", "error"}))
	collect(ValidateOneOf("log.format", c.Log.Format, []string{"text", "json"}))

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// FormatValidationError creates a consistent validation error message
func FormatValidationError(source string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("invalid configuration in %s: %w", source, err)
}
