package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

type commandContext struct {
	server  string
	token   string
	timeout time.Duration
}

func (c *commandContext) client() *apiClient {
	return newAPIClient(c.server, c.token, c.timeout)
}

// requestContext borne la commande au timeout, y compris hors client HTTP.
func (c *commandContext) requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, c.timeout)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "stoop",
		Short:         "Client d'administration de stoop-server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.server, "server", envOr("STOOP_SERVER_URL", "http://127.0.0.1:8080"), "URL du serveur")
	flags.StringVar(&ctx.token, "token", envOr("STOOP_TOKEN", ""), "Access token admin (Bearer)")
	flags.DurationVar(&ctx.timeout, "timeout", 10*time.Second, "Timeout HTTP")

	rootCmd.AddCommand(
		newHealthCommand(ctx),
		newVersionCommand(ctx),
		newEpisodesCommand(ctx),
		newSubscribersCommand(ctx),
		newInboxCommand(ctx),
		newBroadcastCommand(ctx),
		newLinkCommand(),
		newTokenCommand(),
	)
	return rootCmd
}
