package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flitsinc/menu-mcp/config"
	"github.com/flitsinc/menu-mcp/menu"
	"github.com/flitsinc/menu-mcp/telemetry"
	"github.com/flitsinc/menu-mcp/tools"
)

func newCallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Run get_menu once and print the result",
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

			toolbox := newToolbox(settings, logger)
			runner := tools.NewRunner(ctx, func(status string) {
				fmt.Fprintf(cmd.ErrOrStderr(), "(%s)\n", status)
			})
			res := toolbox.Run(runner, menu.ToolName, nil)
			fmt.Fprintln(cmd.OutOrStdout(), res.Content().String())
			if err := res.Error(); err != nil {
				return fmt.Errorf("%s: %w", res.Label(), err)
			}
			return nil
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}
