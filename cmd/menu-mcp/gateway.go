package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flitsinc/menu-mcp/config"
	"github.com/flitsinc/menu-mcp/mcp"
	"github.com/flitsinc/menu-mcp/telemetry"
)

func newGatewayCommand() *cobra.Command {
	var (
		configPath string
		host       string
		port       int
		logLevel   string
	)
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Expose the tools of the MCP servers in a config file over streamable HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return errors.New("--config is required")
			}
			cfg, err := config.LoadGateway(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Server.Host = host
			}
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if flags.Changed("log-level") || cfg.Server.LogLevel == "" {
				cfg.Server.LogLevel = logLevel
			}

			logger, err := telemetry.NewLogger(cfg.Server.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			gw, err := mcp.ConnectGateway(ctx, cfg, mcp.GatewayOptions{Version: version, Logger: logger})
			if err != nil {
				return err
			}
			defer func() {
				if err := gw.Close(); err != nil {
					logger.Warn("closing upstream servers", zap.Error(err))
				}
			}()

			server, err := mcp.NewServer(gw.Toolbox(), mcp.ServerOptions{
				Name:    mcp.DefaultName + " Gateway",
				Version: version,
				Metrics: telemetry.NewMetrics(),
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			logger.Info("gateway ready", zap.Strings("servers", gw.Servers()))
			return server.ListenAndServe(ctx, cfg.Server.Addr())
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "gateway config file (.json with comments, .yaml or .yml)")
	cmd.Flags().StringVar(&host, "host", config.DefaultHost, "bind address, overrides the config file")
	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "bind port, overrides the config file")
	cmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level, overrides the config file")

	cmd.AddCommand(&cobra.Command{
		Use:   "example <path>",
		Short: "Write an example gateway config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteExampleGateway(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", args[0])
			return nil
		},
	})
	return cmd
}
