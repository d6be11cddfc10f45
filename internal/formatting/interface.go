// Package formatting renders token responses for the command line in
// table, JSON or YAML form.
package formatting

import (
	"fmt"
	"io"
	"strings"

	"loopauth/internal/oauth"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// SupportedFormats lists the accepted --output values.
var SupportedFormats = []OutputFormat{FormatTable, FormatJSON, FormatYAML}

// Options configures the formatter behavior
type Options struct {
	Format    OutputFormat
	ShowToken bool // Print credentials instead of [REDACTED]
	Color     bool // Enable colored output (table only)
}

// Formatter writes a token response to w.
type Formatter interface {
	FormatToken(w io.Writer, res *oauth.TokenResult) error
}

// ParseFormat validates an --output value.
func ParseFormat(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	for _, supported := range SupportedFormats {
		if f == supported {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q (supported: table, json, yaml)", s)
}

// New creates the formatter for options.Format. An empty format means table.
func New(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return &JSONFormatter{options: options}
	case FormatYAML:
		return &YAMLFormatter{options: options}
	default:
		return &TableFormatter{options: options}
	}
}
