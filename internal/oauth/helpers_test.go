package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"loopauth/internal/testing/mock"
)

// freeRedirectURI returns a loopback redirect URI on a port that was free a
// moment ago.
func freeRedirectURI(t *testing.T, path string) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return fmt.Sprintf("http://127.0.0.1:%d%s", port, path)
}

// providerConfig builds a FlowConfig pointing at a fake provider.
func providerConfig(t *testing.T, p *mock.Provider) FlowConfig {
	t.Helper()
	return FlowConfig{
		AuthURI:      p.AuthorizeURL(),
		TokenURI:     p.TokenURL(),
		RevokeURI:    p.RevokeURL(),
		ClientID:     p.ClientID(),
		ClientSecret: p.ClientSecret(),
		RedirectURI:  freeRedirectURI(t, "/callback"),
		Scope:        "refresh_token api",
	}
}

// pageResult is what the simulated browser ended up showing.
type pageResult struct {
	StatusCode int
	Body       string
	Err        error
}

// fakeBrowser stands in for the system browser: after delay it loads the
// URL it was asked to open and follows redirects back to the callback.
type fakeBrowser struct {
	delay  time.Duration
	fail   error
	opened atomic.Int32
	pages  chan pageResult
}

func newFakeBrowser(delay time.Duration) *fakeBrowser {
	return &fakeBrowser{delay: delay, pages: make(chan pageResult, 4)}
}

// Open satisfies the Authorizer's browser opener. When fail is set it reports
// a launch failure but still visits the URL, as a user would by hand.
func (b *fakeBrowser) Open(rawURL string) error {
	b.opened.Add(1)
	go func() {
		time.Sleep(b.delay)
		b.pages <- visit(rawURL)
	}()
	return b.fail
}

// page waits for the visited page.
func (b *fakeBrowser) page(t *testing.T) pageResult {
	t.Helper()
	select {
	case p := <-b.pages:
		return p
	case <-time.After(10 * time.Second):
		t.Fatal("browser never finished loading the page")
		return pageResult{}
	}
}

func visit(rawURL string) pageResult {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(rawURL)
	if err != nil {
		return pageResult{Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return pageResult{StatusCode: resp.StatusCode, Body: string(body)}
}

// stubExchanger counts exchanges and returns a canned result.
type stubExchanger struct {
	calls  atomic.Int32
	delay  time.Duration
	result *TokenResult
	err    error

	mu    sync.Mutex
	codes []string
}

func (e *stubExchanger) Exchange(ctx context.Context, _ FlowConfig, code string) (*TokenResult, error) {
	e.calls.Add(1)
	e.mu.Lock()
	e.codes = append(e.codes, code)
	e.mu.Unlock()

	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	if e.result != nil {
		return e.result, nil
	}
	return newTokenResult(http.StatusOK, []byte(`{"access_token":"T","token_type":"bearer","expires_in":3600}`)), nil
}

var errNoResponse = errors.New("dial tcp 127.0.0.1:1: connect: connection refused")
