package oauth

import "fmt"

const redacted = "[REDACTED]"

// sensitiveFields are token response fields that carry credentials.
var sensitiveFields = map[string]bool{
	"access_token":  true,
	"refresh_token": true,
	"id_token":      true,
}

// RedactedToken wraps a credential so it prints as [REDACTED] through fmt,
// encoding/json, and any encoder that honours encoding.TextMarshaler.
type RedactedToken struct {
	value string
}

// NewRedactedToken wraps value.
func NewRedactedToken(value string) RedactedToken {
	return RedactedToken{value: value}
}

// Value returns the credential. Never log the result.
func (t RedactedToken) Value() string {
	return t.value
}

// Hint returns the last four characters of the credential, enough to tell
// two tokens apart without exposing either.
func (t RedactedToken) Hint() string {
	r := []rune(t.value)
	if len(r) <= 8 {
		return redacted
	}
	return fmt.Sprintf("%s ...%s", redacted, string(r[len(r)-4:]))
}

func (t RedactedToken) String() string {
	return redacted
}

func (t RedactedToken) GoString() string {
	return "oauth.RedactedToken{" + redacted + "}"
}

// IsEmpty returns true if the credential is empty.
func (t RedactedToken) IsEmpty() bool {
	return t.value == ""
}

func (t RedactedToken) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

func (t RedactedToken) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// Redacted returns the decoded token response with credential fields
// wrapped in RedactedToken. Other fields are copied as is.
func (r *TokenResult) Redacted() map[string]any {
	if r == nil {
		return nil
	}
	out := make(map[string]any, len(r.Values))
	for k, v := range r.Values {
		if s, ok := v.(string); ok && sensitiveFields[k] {
			out[k] = NewRedactedToken(s)
			continue
		}
		out[k] = v
	}
	return out
}
