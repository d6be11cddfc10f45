package formatting

import (
	"encoding/json"
	"fmt"
	"io"

	"loopauth/internal/oauth"
)

// JSONFormatter prints the token response as indented JSON.
type JSONFormatter struct {
	options Options
}

func (f *JSONFormatter) FormatToken(w io.Writer, res *oauth.TokenResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tokenFields(res, f.options.ShowToken)); err != nil {
		return fmt.Errorf("failed to encode token response: %w", err)
	}
	return nil
}
