package formatting

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"loopauth/internal/oauth"
)

// YAMLFormatter prints the token response as YAML.
type YAMLFormatter struct {
	options Options
}

func (f *YAMLFormatter) FormatToken(w io.Writer, res *oauth.TokenResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tokenFields(res, f.options.ShowToken)); err != nil {
		return fmt.Errorf("failed to encode token response: %w", err)
	}
	return enc.Close()
}
