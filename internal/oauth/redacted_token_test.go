package oauth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactedToken_Formatting(t *testing.T) {
	token := NewRedactedToken("00Dxx0000001gPL!AR8AQJXg5oj8jXSgxJfA0lBog")

	assert.Equal(t, "[REDACTED]", token.String())
	assert.Equal(t, "Token: [REDACTED]", fmt.Sprintf("Token: %s", token))
	assert.Equal(t, "Token: [REDACTED]", fmt.Sprintf("Token: %v", token))
	assert.Equal(t, "oauth.RedactedToken{[REDACTED]}", fmt.Sprintf("%#v", token))
	assert.Equal(t, "00Dxx0000001gPL!AR8AQJXg5oj8jXSgxJfA0lBog", token.Value())
	assert.False(t, token.IsEmpty())
	assert.True(t, NewRedactedToken("").IsEmpty())
}

func TestRedactedToken_Hint(t *testing.T) {
	assert.Equal(t, "[REDACTED] ...lBog", NewRedactedToken("00Dxx0000001gPL!AR8AQJXg5oj8jXSgxJfA0lBog").Hint())
	assert.Equal(t, "[REDACTED]", NewRedactedToken("short").Hint(), "short tokens reveal nothing")
}

func TestRedactedToken_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]any{"access_token": NewRedactedToken("secret")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"[REDACTED]"}`, string(data))
	assert.NotContains(t, string(data), "secret")
}

func TestTokenResult_Redacted(t *testing.T) {
	res := newTokenResult(http.StatusOK, []byte(`{
		"access_token": "AT-123456789",
		"refresh_token": "RT-123456789",
		"instance_url": "https://na1.example.com",
		"expires_in": 3600
	}`))

	out := res.Redacted()
	require.Len(t, out, 4)
	assert.IsType(t, RedactedToken{}, out["access_token"])
	assert.IsType(t, RedactedToken{}, out["refresh_token"])
	assert.Equal(t, "AT-123456789", out["access_token"].(RedactedToken).Value())
	assert.Equal(t, "https://na1.example.com", out["instance_url"])
	assert.Equal(t, float64(3600), out["expires_in"])

	// The original values are untouched.
	assert.Equal(t, "AT-123456789", res.AccessToken())

	var nilResult *TokenResult
	assert.Nil(t, nilResult.Redacted())
}
