package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"loopauth/internal/testing/mock"
)

// newTestRootCmd builds a command tree like rootCmd whose flags start from
// their defaults.
func newTestRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          rootUse,
		Short:        rootShort,
		Long:         rootLong,
		SilenceUsage: true,
	}
	registerCommands(root)
	return root
}

// executeCommand runs a fresh command tree with args and captures output.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := newTestRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func freeRedirectURI(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return fmt.Sprintf("http://127.0.0.1:%d/callback", port)
}

// writeProviderConfig writes a config.yaml pointing at p and returns its
// directory. extra is appended verbatim.
func writeProviderConfig(t *testing.T, p *mock.Provider, extra string) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`client:
  authUri: %s
  tokenUri: %s
  revokeUri: %s
  clientId: %s
  clientSecret: %s
  redirectUri: %s
  scope: refresh_token api
%s`, p.AuthorizeURL(), p.TokenURL(), p.RevokeURL(), p.ClientID(), p.ClientSecret(), freeRedirectURI(t), extra)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600))
	return dir
}

// stubBrowser makes login "open" the URL by fetching it, following the
// provider's redirect back to the callback.
func stubBrowser(t *testing.T) {
	t.Helper()
	original := openBrowser
	openBrowser = func(authURL string) error {
		go visit(authURL)
		return nil
	}
	t.Cleanup(func() { openBrowser = original })
}

func visit(rawURL string) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(rawURL)
	if err != nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
