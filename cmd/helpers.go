package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"loopauth/internal/config"
	"loopauth/internal/oauth"
	"loopauth/pkg/logging"
	pkgoauth "loopauth/pkg/oauth"
)

// stateAuto asks for a freshly generated state value.
const stateAuto = "auto"

// openBrowser opens the authorization URL. Tests replace it.
var openBrowser = oauth.OpenBrowser

// clientFlags are command-line overrides for the client section of the
// configuration. Empty values keep the configured ones.
type clientFlags struct {
	issuer      string
	clientID    string
	secret      string
	authURI     string
	tokenURI    string
	revokeURI   string
	redirectURI string
	scope       string
	prompt      string
}

func addClientFlags(cmd *cobra.Command, f *clientFlags) {
	cmd.Flags().StringVar(&f.issuer, "issuer", "", "Issuer URL used to discover the provider's endpoints")
	cmd.Flags().StringVar(&f.clientID, "client-id", "", "OAuth client ID")
	cmd.Flags().StringVar(&f.secret, "client-secret", "", "OAuth client secret")
	cmd.Flags().StringVar(&f.authURI, "auth-uri", "", "Authorization endpoint")
	cmd.Flags().StringVar(&f.tokenURI, "token-uri", "", "Token endpoint")
	cmd.Flags().StringVar(&f.revokeURI, "revoke-uri", "", "Token revocation endpoint")
	cmd.Flags().StringVar(&f.redirectURI, "redirect-uri", "", "Loopback redirect URI (default http://localhost:8080/callback)")
	cmd.Flags().StringVar(&f.scope, "scope", "", "Space-separated scopes to request")
	cmd.Flags().StringVar(&f.prompt, "prompt", "", `Value for the "prompt" parameter, e.g. login`)
}

func (f *clientFlags) apply(c *config.ClientConfig) {
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&c.Issuer, f.issuer)
	override(&c.ClientID, f.clientID)
	override(&c.ClientSecret, f.secret)
	override(&c.AuthURI, f.authURI)
	override(&c.TokenURI, f.tokenURI)
	override(&c.RevokeURI, f.revokeURI)
	override(&c.RedirectURI, f.redirectURI)
	override(&c.Scope, f.scope)
	override(&c.Prompt, f.prompt)
}

// loadConfig loads the configuration, applies flag overrides, sets up
// logging and resolves endpoints through discovery when an issuer is set.
func loadConfig(ctx context.Context, errOut io.Writer, flags *clientFlags) (config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if flags != nil {
		flags.apply(&cfg.Client)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := initLogging(cfg, errOut); err != nil {
		return config.Config{}, err
	}

	discovery := pkgoauth.NewClient(pkgoauth.WithLogger(logging.Logger("Discovery")))
	if err := cfg.ResolveEndpoints(ctx, discovery); err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, config.FormatValidationError(configSource(), err)
	}
	return cfg, nil
}

func initLogging(cfg config.Config, errOut io.Writer) error {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logging.Init(level, logging.Format(cfg.Log.Format), errOut)
	return nil
}

func configSource() string {
	dir := configPath
	if dir == "" {
		var err error
		if dir, err = config.GetDefaultConfigPath(); err != nil {
			return "configuration"
		}
	}
	return filepath.Join(dir, "config.yaml")
}

// resolveState turns the --state flag into the value sent to the provider.
func resolveState(flag string) string {
	if flag == stateAuto {
		return uuid.NewString()
	}
	return flag
}

// resolveTimeout prefers the flag over the configuration.
func resolveTimeout(flag time.Duration, cfg config.Config) time.Duration {
	if flag > 0 {
		return flag
	}
	return cfg.Timeout
}

// colorEnabled reports whether w is the terminal's stdout and color was not
// disabled by --no-color or NO_COLOR.
func colorEnabled(w io.Writer) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && f == os.Stdout
}
