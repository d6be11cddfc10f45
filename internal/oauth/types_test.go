package oauth

import (
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowConfig_Validate(t *testing.T) {
	valid := FlowConfig{
		AuthURI:     "https://login.example.com/authorize",
		TokenURI:    "https://login.example.com/token",
		ClientID:    "client",
		RedirectURI: "http://localhost:8080/callback",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(*FlowConfig)
		wantErr string
	}{
		{"missing auth URI", func(c *FlowConfig) { c.AuthURI = "" }, "auth URI"},
		{"missing token URI", func(c *FlowConfig) { c.TokenURI = "" }, "token URI"},
		{"missing client", func(c *FlowConfig) { c.ClientID = "" }, "client ID"},
		{"missing redirect", func(c *FlowConfig) { c.RedirectURI = "" }, "redirect URI"},
		{"https redirect", func(c *FlowConfig) { c.RedirectURI = "https://localhost:8080/callback" }, "must use http"},
		{"no host", func(c *FlowConfig) { c.RedirectURI = "http:///callback" }, "has no host"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFlowConfig_CallbackAddrAndPath(t *testing.T) {
	tests := []struct {
		redirect string
		addr     string
		path     string
	}{
		{"http://localhost:8080/callback", "localhost:8080", "/callback"},
		{"http://127.0.0.1:7788/oauth/cb", "127.0.0.1:7788", "/oauth/cb"},
		{"http://localhost", "localhost:80", "/"},
		{"http://[::1]:9000/", "[::1]:9000", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.redirect, func(t *testing.T) {
			cfg := FlowConfig{RedirectURI: tt.redirect}
			addr, err := cfg.CallbackAddr()
			require.NoError(t, err)
			assert.Equal(t, tt.addr, addr)
			assert.Equal(t, tt.path, cfg.CallbackPath())
		})
	}
}

func TestFlowConfig_AuthorizationURL(t *testing.T) {
	cfg := FlowConfig{
		AuthURI:     "https://login.example.com/services/oauth2/authorize",
		ClientID:    "client",
		RedirectURI: "http://localhost:8080/callback",
		Scope:       "web full refresh_token",
		Prompt:      "login",
		State:       "xyz",
	}

	u, err := url.Parse(cfg.AuthorizationURL())
	require.NoError(t, err)
	assert.Equal(t, "login.example.com", u.Host)
	assert.Equal(t, "/services/oauth2/authorize", u.Path)

	want := url.Values{
		"response_type": {"code"},
		"client_id":     {"client"},
		"redirect_uri":  {"http://localhost:8080/callback"},
		"scope":         {"web full refresh_token"},
		"prompt":        {"login"},
		"state":         {"xyz"},
	}
	if diff := cmp.Diff(want, u.Query()); diff != "" {
		t.Errorf("authorization URL query mismatch (-want +got):\n%s", diff)
	}
}

func TestFlowConfig_AuthorizationURL_Minimal(t *testing.T) {
	cfg := FlowConfig{
		AuthURI:     "https://login.example.com/authorize",
		ClientID:    "client",
		RedirectURI: DefaultRedirectURI,
	}
	u, err := url.Parse(cfg.AuthorizationURL())
	require.NoError(t, err)
	q := u.Query()
	assert.False(t, q.Has("state"))
	assert.False(t, q.Has("scope"))
	assert.False(t, q.Has("prompt"))
}

func TestFlowConfig_AuthorizationURL_PKCE(t *testing.T) {
	cfg := FlowConfig{
		AuthURI:      "https://login.example.com/authorize",
		ClientID:     "client",
		RedirectURI:  DefaultRedirectURI,
		CodeVerifier: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk",
	}
	u, err := url.Parse(cfg.AuthorizationURL())
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", q.Get("code_challenge"))
	assert.False(t, q.Has("code_verifier"), "the verifier never leaves the client")
}

func TestTokenResult(t *testing.T) {
	res := newTokenResult(200, []byte(`{"access_token":"T","token_type":"bearer","expires_in":3600,"refresh_token":"R","scope":"create","instance_url":"https://x.example.com"}`))

	assert.Equal(t, "T", res.AccessToken())
	assert.Equal(t, "3600", res.String("expires_in"))
	assert.Equal(t, time.Hour, res.ExpiresIn())
	assert.Equal(t, "", res.String("missing"))

	before := time.Now()
	tok := res.Token()
	assert.Equal(t, "T", tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.Equal(t, "R", tok.RefreshToken)
	assert.WithinDuration(t, before.Add(time.Hour), tok.Expiry, 5*time.Second)
	assert.Equal(t, "https://x.example.com", tok.Extra("instance_url"))
}

func TestTokenResult_NonJSON(t *testing.T) {
	res := newTokenResult(502, []byte("<html>bad gateway</html>"))
	assert.Nil(t, res.Values)
	assert.Equal(t, "", res.AccessToken())
	assert.Zero(t, res.ExpiresIn())

	tok := res.Token()
	assert.True(t, tok.Expiry.IsZero())

	var nilRes *TokenResult
	assert.Equal(t, "", nilRes.String("access_token"))
}
