package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"loopauth/internal/config"
	"loopauth/internal/formatting"
	"loopauth/pkg/logging"
	pkgoauth "loopauth/pkg/oauth"
)

// newDiscoverCmd creates the discover command.
func newDiscoverCmd() *cobra.Command {
	var issuer, output string
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Show an issuer's OAuth endpoints",
		Long: `Fetch authorization server metadata (RFC 8414, with OpenID Connect
discovery as a fallback) and print the endpoints loopauth would use.

The issuer defaults to client.issuer from the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatting.ParseFormat(output)
			if err != nil {
				return err
			}
			if format == formatting.FormatYAML {
				return fmt.Errorf("discover supports table and json output")
			}
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if err := initLogging(cfg, cmd.ErrOrStderr()); err != nil {
				return err
			}
			if issuer == "" {
				issuer = cfg.Client.Issuer
			}
			if issuer == "" {
				return fmt.Errorf("no issuer given: use --issuer or set client.issuer")
			}

			client := pkgoauth.NewClient(pkgoauth.WithLogger(logging.Logger("Discovery")))
			metadata, err := client.DiscoverMetadata(cmd.Context(), issuer)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format != formatting.FormatTable {
				fmt.Fprintln(out, formatting.PrettyJSON(metadata))
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"ENDPOINT", "URL"})
			t.AppendRows([]table.Row{
				{"issuer", metadata.Issuer},
				{"authorization", metadata.AuthorizationEndpoint},
				{"token", metadata.TokenEndpoint},
				{"revocation", metadata.RevocationEndpoint},
			})
			t.AppendFooter(table.Row{"pkce (S256)", fmt.Sprintf("%t", metadata.SupportsPKCE())})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&issuer, "issuer", "", "Issuer URL")
	cmd.Flags().StringVarP(&output, "output", "o", string(formatting.FormatTable), "Output format: table, json")
	return cmd
}
