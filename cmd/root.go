package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"loopauth/internal/oauth"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthFailed indicates the provider denied authorization or the
	// token response was rejected.
	ExitCodeAuthFailed = 2
	// ExitCodeTimeout indicates no callback arrived before the deadline.
	ExitCodeTimeout = 3
	// ExitCodeUnavailable indicates the callback port or the token endpoint
	// could not be reached.
	ExitCodeUnavailable = 4
)

// Persistent flags shared by all commands.
var (
	configPath string
	logLevel   string
	noColor    bool
)

const (
	rootUse   = "loopauth"
	rootShort = "Obtain OAuth 2.0 tokens from the command line"
	rootLong  = `loopauth runs the OAuth 2.0 authorization-code flow for command-line tools.

It opens the provider's login page in your browser, listens on a loopback
address for the redirect, exchanges the authorization code for tokens and
prints the result.`
)

// rootCmd represents the base command for the loopauth application.
var rootCmd = &cobra.Command{
	Use:   rootUse,
	Short: rootShort,
	Long:  rootLong,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

func init() {
	registerCommands(rootCmd)
}

// registerCommands attaches the persistent flags and subcommands to root.
func registerCommands(root *cobra.Command) {
	root.PersistentFlags().StringVar(&configPath, "config", "", "Configuration directory (default is $HOME/.config/loopauth)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newLoginCmd())
	root.AddCommand(newAuthorizeURLCmd())
	root.AddCommand(newRevokeCmd())
	root.AddCommand(newDiscoverCmd())
	root.AddCommand(newVersionCmd())
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "loopauth version %s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var denied *oauth.AuthDeniedError
	var invalid *oauth.TokenValidationError
	if errors.As(err, &denied) || errors.As(err, &invalid) {
		return ExitCodeAuthFailed
	}

	var timeout *oauth.AuthTimeoutError
	if errors.As(err, &timeout) {
		return ExitCodeTimeout
	}

	var bind *oauth.BindError
	var transport *oauth.AuthTransportError
	if errors.As(err, &bind) || errors.As(err, &transport) {
		return ExitCodeUnavailable
	}

	return ExitCodeError
}
