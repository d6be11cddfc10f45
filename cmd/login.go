package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"loopauth/internal/formatting"
	"loopauth/internal/oauth"
	pkgoauth "loopauth/pkg/oauth"
)

type loginOptions struct {
	client    clientFlags
	state     string
	pkce      bool
	timeout   time.Duration
	noBrowser bool
	output    string
	showToken bool
}

// newLoginCmd creates the login command, which runs one authorization-code flow.
func newLoginCmd() *cobra.Command {
	opts := &loginOptions{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize in the browser and print the resulting tokens",
		Long: `Run the OAuth 2.0 authorization-code flow.

loopauth binds the redirect URI's host and port, opens the provider's login
page in your browser and waits for the redirect. The authorization code is
exchanged for tokens as soon as it arrives and the token response is printed.

Credentials are shown as [REDACTED] unless --show-token is given.

Examples:
  loopauth login                                  # Use ~/.config/loopauth/config.yaml
  loopauth login --client-id my-app --issuer https://login.example.com
  loopauth login --no-browser --timeout 2m        # Print the URL instead of opening it
  loopauth login --output json --show-token       # Machine-readable output`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts)
		},
	}

	addClientFlags(cmd, &opts.client)
	cmd.Flags().StringVar(&opts.state, "state", "", `State parameter to send and verify; "auto" generates one`)
	cmd.Flags().BoolVar(&opts.pkce, "pkce", false, "Use PKCE (S256)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "How long to wait for the redirect (default from config, 5m)")
	cmd.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "Print the authorization URL instead of opening a browser")
	cmd.Flags().StringVarP(&opts.output, "output", "o", string(formatting.FormatTable), "Output format: table, json, yaml")
	cmd.Flags().BoolVar(&opts.showToken, "show-token", false, "Print credentials in clear text")
	return cmd
}

func runLogin(cmd *cobra.Command, opts *loginOptions) error {
	format, err := formatting.ParseFormat(opts.output)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errOut := cmd.ErrOrStderr()
	cfg, err := loadConfig(ctx, errOut, &opts.client)
	if err != nil {
		return err
	}

	flow := cfg.ToFlowConfig(resolveState(opts.state))
	if opts.pkce || cfg.Client.PKCE {
		flow.CodeVerifier = pkgoauth.GeneratePKCE().CodeVerifier
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(errOut))
	s.Suffix = " Waiting for authorization in the browser..."

	browser := openBrowser
	if opts.noBrowser || cfg.Browser.Disabled {
		browser = func(string) error { return nil }
	}

	authorizer := oauth.NewAuthorizer(
		oauth.WithBrowserOpener(browser),
		oauth.WithListeningHook(func(authURL string) {
			if opts.noBrowser || cfg.Browser.Disabled {
				fmt.Fprintf(errOut, "Open this URL in your browser to authorize:\n\n  %s\n\n", authURL)
			} else {
				fmt.Fprintf(errOut, "Opening browser to authorize. If it does not open, visit:\n\n  %s\n\n", authURL)
			}
			s.Start()
		}),
	)

	res, err := authorizer.Run(ctx, flow, resolveTimeout(opts.timeout, cfg))
	s.Stop()
	if err != nil {
		fmt.Fprintln(errOut, text.FgRed.Sprint("❌ Authorization failed"))
		return err
	}
	fmt.Fprintln(errOut, text.FgGreen.Sprint("✅ Authorization succeeded"))

	out := cmd.OutOrStdout()
	return formatting.New(formatting.Options{
		Format:    format,
		ShowToken: opts.showToken,
		Color:     colorEnabled(out),
	}).FormatToken(out, res)
}
