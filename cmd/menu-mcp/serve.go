package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flitsinc/menu-mcp/auth"
	"github.com/flitsinc/menu-mcp/config"
	"github.com/flitsinc/menu-mcp/mcp"
	"github.com/flitsinc/menu-mcp/menu"
	"github.com/flitsinc/menu-mcp/telemetry"
	"github.com/flitsinc/menu-mcp/tools"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the get_menu tool over streamable HTTP or stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := telemetry.NewLogger(settings.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			metrics := telemetry.NewMetrics()
			server, err := mcp.NewServer(newToolbox(settings, logger), mcp.ServerOptions{
				Name:    mcp.DefaultName,
				Version: version,
				Metrics: metrics,
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			if settings.Transport == config.TransportStdio {
				return server.ServeStdio(ctx)
			}
			return server.ListenAndServe(ctx, settings.Addr())
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// newService wires the issuer and fetcher described by settings. With auth
// disabled no issuer is configured at all.
func newService(settings config.Settings, logger *zap.Logger) *menu.Service {
	client := settings.HTTPClient()
	if settings.Insecure {
		logger.Warn("TLS certificate verification is disabled for upstream requests")
	}

	var issuer menu.TokenIssuer
	if settings.AuthEnabled {
		issuer = auth.NewIssuer(settings.TokenEndpoint, client).WithLogger(logger)
	}
	fetcher := menu.NewFetcher(settings.ResourceEndpoint, client).WithLogger(logger)

	logger.Info("menu service configured",
		zap.Bool("auth", settings.AuthEnabled),
		zap.String("token_endpoint", settings.TokenEndpoint),
		zap.String("resource_endpoint", settings.ResourceEndpoint),
		zap.Duration("timeout", settings.Timeout))
	return menu.NewService(issuer, fetcher).WithLogger(logger)
}

func newToolbox(settings config.Settings, logger *zap.Logger) *tools.Toolbox {
	return tools.Box(menu.GetMenuTool(newService(settings, logger)))
}
