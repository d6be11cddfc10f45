package oauth

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startCallbackServer binds and serves a callback server, returning the
// redirect URI and a channel with the winning outcome.
func startCallbackServer(t *testing.T, cfg FlowConfig, ex Exchanger) (*CallbackServer, <-chan CallbackOutcome) {
	t.Helper()
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = freeRedirectURI(t, "/callback")
	}
	if cfg.TokenURI == "" {
		cfg.TokenURI = "http://127.0.0.1:1/token"
	}

	sess := newSession()
	server := NewCallbackServer(cfg, ex, sess.resolve)
	require.NoError(t, server.Listen(context.Background()))

	outcomes := make(chan CallbackOutcome, 1)
	go func() {
		_ = server.Serve()
		outcomes <- sess.result()
	}()
	t.Cleanup(server.Stop)
	return server, outcomes
}

func waitOutcome(t *testing.T, ch <-chan CallbackOutcome) CallbackOutcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(10 * time.Second):
		t.Fatal("callback server did not stop")
		return CallbackOutcome{}
	}
}

func TestCallbackServer_Success(t *testing.T) {
	ex := &stubExchanger{}
	cfg := FlowConfig{RedirectURI: freeRedirectURI(t, "/callback")}
	_, outcomes := startCallbackServer(t, cfg, ex)

	page := visit(cfg.RedirectURI + "?code=abc123")
	require.NoError(t, page.Err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, page.Body, "Congratulations! Your authentication succeeded.")

	outcome := waitOutcome(t, outcomes)
	assert.Equal(t, OutcomeSuccess, outcome.Kind)
	assert.Equal(t, "abc123", outcome.Code)
	require.NotNil(t, outcome.Token)
	assert.Equal(t, "T", outcome.Token.AccessToken())
	assert.Equal(t, []string{"abc123"}, ex.codes)
}

func TestCallbackServer_ProviderError(t *testing.T) {
	ex := &stubExchanger{}
	cfg := FlowConfig{RedirectURI: freeRedirectURI(t, "/callback")}
	_, outcomes := startCallbackServer(t, cfg, ex)

	page := visit(cfg.RedirectURI + "?error=access_denied&error_description=User+declined")
	require.NoError(t, page.Err)
	assert.Equal(t, http.StatusBadRequest, page.StatusCode)
	assert.Contains(t, page.Body, "error: access_denied")
	assert.Contains(t, page.Body, "error description: User declined")

	outcome := waitOutcome(t, outcomes)
	assert.Equal(t, OutcomeProviderError, outcome.Kind)
	assert.Equal(t, "access_denied", outcome.Error)
	assert.Equal(t, "User declined", outcome.Description)
	assert.Zero(t, ex.calls.Load(), "no exchange after a provider error")
}

func TestCallbackServer_ErrorPageEscapesProviderText(t *testing.T) {
	cfg := FlowConfig{RedirectURI: freeRedirectURI(t, "/callback")}
	_, outcomes := startCallbackServer(t, cfg, &stubExchanger{})

	page := visit(cfg.RedirectURI + "?error=%3Cscript%3E&error_description=x")
	require.NoError(t, page.Err)
	assert.NotContains(t, page.Body, "<script>")
	assert.Contains(t, page.Body, "&lt;script&gt;")
	waitOutcome(t, outcomes)
}

func TestCallbackServer_ExchangeErrorStatusPassedThrough(t *testing.T) {
	body := `{"error":"invalid_grant","error_description":"expired authorization code"}`
	ex := &stubExchanger{result: newTokenResult(http.StatusBadRequest, []byte(body))}
	cfg := FlowConfig{RedirectURI: freeRedirectURI(t, "/callback")}
	_, outcomes := startCallbackServer(t, cfg, ex)

	page := visit(cfg.RedirectURI + "?code=stale")
	require.NoError(t, page.Err)
	assert.Equal(t, http.StatusBadRequest, page.StatusCode)
	assert.Equal(t, body, page.Body)

	outcome := waitOutcome(t, outcomes)
	assert.Equal(t, OutcomeSuccess, outcome.Kind, "listener does not judge the exchange beyond transport")
	require.NotNil(t, outcome.Token)
	assert.Equal(t, http.StatusBadRequest, outcome.Token.StatusCode)
}

func TestCallbackServer_TransportFailure(t *testing.T) {
	ex := &stubExchanger{err: errNoResponse}
	cfg := FlowConfig{RedirectURI: freeRedirectURI(t, "/callback")}
	_, outcomes := startCallbackServer(t, cfg, ex)

	page := visit(cfg.RedirectURI + "?code=abc")
	require.NoError(t, page.Err)
	assert.Equal(t, http.StatusBadRequest, page.StatusCode)

	outcome := waitOutcome(t, outcomes)
	assert.Equal(t, OutcomeTransportFailure, outcome.Kind)
	assert.Contains(t, outcome.Detail, "connection refused")
}

func TestCallbackServer_MissingCode(t *testing.T) {
	ex := &stubExchanger{}
	cfg := FlowConfig{RedirectURI: freeRedirectURI(t, "/callback")}
	_, outcomes := startCallbackServer(t, cfg, ex)

	page := visit(cfg.RedirectURI)
	require.NoError(t, page.Err)
	assert.Equal(t, http.StatusBadRequest, page.StatusCode)

	outcome := waitOutcome(t, outcomes)
	assert.Equal(t, OutcomeProviderError, outcome.Kind)
	assert.Equal(t, "invalid_request", outcome.Error)
	assert.Zero(t, ex.calls.Load())
}

func TestCallbackServer_StateMismatch(t *testing.T) {
	ex := &stubExchanger{}
	cfg := FlowConfig{RedirectURI: freeRedirectURI(t, "/callback"), State: "expected-state"}
	_, outcomes := startCallbackServer(t, cfg, ex)

	page := visit(cfg.RedirectURI + "?code=abc&state=forged")
	require.NoError(t, page.Err)
	assert.Equal(t, http.StatusBadRequest, page.StatusCode)

	outcome := waitOutcome(t, outcomes)
	assert.Equal(t, OutcomeProviderError, outcome.Kind)
	assert.Equal(t, "state_mismatch", outcome.Error)
	assert.Zero(t, ex.calls.Load())
}

func TestCallbackServer_OtherPathsIgnored(t *testing.T) {
	ex := &stubExchanger{}
	cfg := FlowConfig{RedirectURI: freeRedirectURI(t, "/callback")}
	_, outcomes := startCallbackServer(t, cfg, ex)

	base := strings.TrimSuffix(cfg.RedirectURI, "/callback")
	page := visit(base + "/favicon.ico")
	require.NoError(t, page.Err)
	assert.Equal(t, http.StatusNotFound, page.StatusCode)

	page = visit(cfg.RedirectURI + "?code=after-favicon")
	require.NoError(t, page.Err)
	assert.Equal(t, http.StatusOK, page.StatusCode)

	outcome := waitOutcome(t, outcomes)
	assert.Equal(t, "after-favicon", outcome.Code)
}

func TestCallbackServer_DuplicateCallbacksExchangeOnce(t *testing.T) {
	ex := &stubExchanger{delay: 200 * time.Millisecond}
	cfg := FlowConfig{RedirectURI: freeRedirectURI(t, "/callback")}
	_, outcomes := startCallbackServer(t, cfg, ex)

	var wg sync.WaitGroup
	pages := make([]pageResult, 2)
	for i := range pages {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pages[i] = visit(cfg.RedirectURI + "?code=dup")
		}(i)
	}
	wg.Wait()

	outcome := waitOutcome(t, outcomes)
	assert.Equal(t, OutcomeSuccess, outcome.Kind)
	assert.Equal(t, int32(1), ex.calls.Load(), "duplicate redirect must not exchange twice")

	ok := 0
	for _, p := range pages {
		if p.Err == nil && p.StatusCode == http.StatusOK {
			ok++
		}
	}
	assert.Equal(t, 1, ok, "exactly one request renders the success page")
}

func TestCallbackServer_StopsAfterCallback(t *testing.T) {
	cfg := FlowConfig{RedirectURI: freeRedirectURI(t, "/callback")}
	server, outcomes := startCallbackServer(t, cfg, &stubExchanger{})

	page := visit(cfg.RedirectURI + "?code=abc")
	require.NoError(t, page.Err)
	waitOutcome(t, outcomes)

	select {
	case <-server.Stopped():
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop after the callback")
	}

	page = visit(cfg.RedirectURI + "?code=late")
	assert.Error(t, page.Err, "listener must be closed after the first callback")
}

func TestCallbackServer_StopIsIdempotent(t *testing.T) {
	cfg := FlowConfig{RedirectURI: freeRedirectURI(t, "/callback")}
	server, outcomes := startCallbackServer(t, cfg, &stubExchanger{})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			server.Stop()
		}()
	}
	wg.Wait()
	server.Stop()

	outcome := waitOutcome(t, outcomes)
	assert.Equal(t, OutcomeNone, outcome.Kind)
}

func TestCallbackServer_StopBeforeListen(t *testing.T) {
	server := NewCallbackServer(FlowConfig{RedirectURI: DefaultRedirectURI}, &stubExchanger{}, newSession().resolve)
	assert.NotPanics(t, server.Stop)
	assert.Error(t, server.Serve())
}

func TestCallbackServer_SecurityHeaders(t *testing.T) {
	cfg := FlowConfig{RedirectURI: freeRedirectURI(t, "/callback")}
	_, outcomes := startCallbackServer(t, cfg, &stubExchanger{})

	resp, err := http.Get(cfg.RedirectURI + "?code=abc")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", resp.Header.Get("Referrer-Policy"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	waitOutcome(t, outcomes)
}

func TestCallbackServer_BindError(t *testing.T) {
	cfg := FlowConfig{RedirectURI: freeRedirectURI(t, "/callback")}
	first, _ := startCallbackServer(t, cfg, &stubExchanger{})
	defer first.Stop()

	second := NewCallbackServer(cfg, &stubExchanger{}, newSession().resolve)
	err := second.Listen(context.Background())
	require.Error(t, err)

	var bindErr *BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, strings.TrimSuffix(strings.TrimPrefix(cfg.RedirectURI, "http://"), "/callback"), bindErr.Addr)
}

func TestCallbackServer_IdleConnectionDoesNotDelayStop(t *testing.T) {
	cfg := FlowConfig{RedirectURI: freeRedirectURI(t, "/callback")}
	server, outcomes := startCallbackServer(t, cfg, &stubExchanger{})

	// A connection that never sends a request, like a browser preconnect.
	idle, err := net.Dial("tcp", server.Addr())
	require.NoError(t, err)
	defer idle.Close()

	start := time.Now()
	page := visit(cfg.RedirectURI + "?code=abc")
	require.NoError(t, page.Err)
	waitOutcome(t, outcomes)

	select {
	case <-server.Stopped():
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Less(t, time.Since(start), 2*time.Second)
}
