package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"loopauth/internal/oauth"
)

type revokeOptions struct {
	client clientFlags
	token  string
}

// newRevokeCmd creates the revoke command.
func newRevokeCmd() *cobra.Command {
	opts := &revokeOptions{}
	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an access or refresh token",
		Long: `Revoke a token at the provider's revocation endpoint.

The endpoint comes from client.revokeUri, --revoke-uri, or the issuer's
discovery metadata.

Examples:
  loopauth revoke --token "$REFRESH_TOKEN"
  LOOPAUTH_REVOKE_URI=https://login.example.com/revoke loopauth revoke --token T`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(ctx, cmd.ErrOrStderr(), &opts.client)
			if err != nil {
				return err
			}
			if err := oauth.NewTokenExchanger().Revoke(ctx, cfg.ToFlowConfig(""), opts.token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), text.FgGreen.Sprint("✅ Token revoked"))
			return nil
		},
	}

	addClientFlags(cmd, &opts.client)
	cmd.Flags().StringVar(&opts.token, "token", "", "Token to revoke")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
