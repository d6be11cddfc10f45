package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ConfigurationError describes a configuration file that could not be used.
type ConfigurationError struct {
	FilePath    string   `json:"filePath"`    // Full path to the file that caused the error
	FileName    string   `json:"fileName"`    // Base name of the file
	ErrorType   string   `json:"errorType"`   // Type of error (parse, io)
	Message     string   `json:"message"`     // Human-readable error message
	Details     string   `json:"details"`     // Underlying error text
	Suggestions []string `json:"suggestions"` // Actionable suggestions to fix the error
	Err         error    `json:"-"`
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	if ce.Details == "" {
		return fmt.Sprintf("%s: %s", ce.FileName, ce.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ce.FileName, ce.Message, ce.Details)
}

func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}

// DetailedError returns a detailed error message with all context
func (ce *ConfigurationError) DetailedError() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Configuration Error in %s", ce.FileName))
	parts = append(parts, fmt.Sprintf("  File: %s", ce.FilePath))
	parts = append(parts, fmt.Sprintf("  Type: %s", ce.ErrorType))
	parts = append(parts, fmt.Sprintf("  Error: %s", ce.Message))

	if ce.Details != "" {
		parts = append(parts, fmt.Sprintf("  Details: %s", ce.Details))
	}

	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}

	return strings.Join(parts, "\n")
}

// NewConfigurationError creates a configuration error for filePath.
func NewConfigurationError(filePath, errorType, message string, err error) *ConfigurationError {
	ce := &ConfigurationError{
		FilePath:  filePath,
		FileName:  filepath.Base(filePath),
		ErrorType: errorType,
		Message:   message,
		Err:       err,
	}
	if err != nil {
		ce.Details = err.Error()
	}
	switch errorType {
	case "parse":
		ce.Suggestions = []string{
			"Check the YAML syntax (indentation, quoting)",
			"Durations such as timeout use Go syntax, e.g. 5m or 90s",
		}
	case "io":
		ce.Suggestions = []string{"Check that the file is readable by the current user"}
	}
	return ce
}
