package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/flitsinc/menu-mcp/config"
	"github.com/flitsinc/menu-mcp/menuapi"
	"github.com/flitsinc/menu-mcp/telemetry"
)

func newAPICommand() *cobra.Command {
	var (
		addr        string
		requireAuth bool
		logLevel    string
	)
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Run the local menu API (menu document and demo token issuer)",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := telemetry.NewLogger(logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			server, err := menuapi.New(menuapi.Options{
				RequireAuth: requireAuth,
				SigningKey:  []byte(os.Getenv("MENU_API_SIGNING_KEY")),
				Logger:      logger,
			})
			if err != nil {
				return err
			}

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()
			return server.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", menuapi.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&requireAuth, "require-auth", false, "reject menu requests without a token issued by this server")
	cmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level")
	return cmd
}
