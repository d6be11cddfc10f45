package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	pkgoauth "loopauth/pkg/oauth"
)

type authorizeURLOptions struct {
	client clientFlags
	state  string
	pkce   bool
}

// newAuthorizeURLCmd creates the authorize-url command.
func newAuthorizeURLCmd() *cobra.Command {
	opts := &authorizeURLOptions{}
	cmd := &cobra.Command{
		Use:   "authorize-url",
		Short: "Print the authorization URL without starting a flow",
		Long: `Print the URL the browser would be sent to by "loopauth login".

With --pkce the generated code verifier is printed to stderr so the exchange
can be completed by other means.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), cmd.ErrOrStderr(), &opts.client)
			if err != nil {
				return err
			}

			flow := cfg.ToFlowConfig(resolveState(opts.state))
			if opts.pkce || cfg.Client.PKCE {
				flow.CodeVerifier = pkgoauth.GeneratePKCE().CodeVerifier
				fmt.Fprintf(cmd.ErrOrStderr(), "code_verifier: %s\n", flow.CodeVerifier)
			}
			if flow.State != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "state: %s\n", flow.State)
			}
			fmt.Fprintln(cmd.OutOrStdout(), flow.AuthorizationURL())
			return nil
		},
	}

	addClientFlags(cmd, &opts.client)
	cmd.Flags().StringVar(&opts.state, "state", "", `State parameter to include; "auto" generates one`)
	cmd.Flags().BoolVar(&opts.pkce, "pkce", false, "Include an S256 PKCE challenge")
	return cmd
}
