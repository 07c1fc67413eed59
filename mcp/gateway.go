package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flitsinc/menu-mcp/config"
	"github.com/flitsinc/menu-mcp/tools"
)

// Gateway holds connections to the upstream servers of a gateway config and
// the tools they offer.
type Gateway struct {
	clients map[string]*Client
	toolbox *tools.Toolbox
	logger  *zap.Logger
}

// GatewayOptions configures ConnectGateway.
type GatewayOptions struct {
	// Version is announced to upstream servers as the client version.
	Version string
	Logger  *zap.Logger
}

// ConnectGateway connects to every server in cfg concurrently. Tools are
// added to the toolbox ordered by server name; two servers offering the same
// tool name is an error.
func ConnectGateway(ctx context.Context, cfg *config.GatewayConfig, opts GatewayOptions) (*Gateway, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("gateway")

	var mu sync.Mutex
	clients := make(map[string]*Client, len(cfg.MCPServers))
	serverTools := make(map[string][]tools.Tool, len(cfg.MCPServers))

	g, gctx := errgroup.WithContext(ctx)
	for name, serverConfig := range cfg.MCPServers {
		g.Go(func() error {
			transportConfig, err := convertToTransportConfig(serverConfig)
			if err != nil {
				return fmt.Errorf("invalid config for server %s: %w", name, err)
			}
			client, err := ConnectClient(gctx, name, opts.Version, transportConfig)
			if err != nil {
				return fmt.Errorf("failed to connect to server %s: %w", name, err)
			}
			mu.Lock()
			clients[name] = client
			mu.Unlock()

			mcpTools, err := client.ListTools(gctx)
			if err != nil {
				return fmt.Errorf("failed to list tools for server %s: %w", name, err)
			}
			list := make([]tools.Tool, 0, len(mcpTools))
			for _, mcpTool := range mcpTools {
				list = append(list, NewMCPTool(client, mcpTool))
			}
			mu.Lock()
			serverTools[name] = list
			mu.Unlock()
			logger.Info("connected upstream server",
				zap.String("server", name),
				zap.String("transport", transportConfig.Type),
				zap.Int("tools", len(list)))
			return nil
		})
	}

	gw := &Gateway{clients: clients, toolbox: tools.Box(), logger: logger}
	if err := g.Wait(); err != nil {
		_ = gw.Close()
		return nil, err
	}

	for _, name := range gw.Servers() {
		for _, tool := range serverTools[name] {
			if err := gw.toolbox.TryAdd(tool); err != nil {
				_ = gw.Close()
				return nil, fmt.Errorf("server %s: %w", name, err)
			}
		}
	}
	return gw, nil
}

// Toolbox returns the tools of all upstream servers.
func (g *Gateway) Toolbox() *tools.Toolbox {
	return g.toolbox
}

// Servers returns the names of the connected servers, sorted.
func (g *Gateway) Servers() []string {
	names := make([]string, 0, len(g.clients))
	for name := range g.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes all server connections
func (g *Gateway) Close() error {
	var errs []error
	for name, client := range g.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", name, err))
		}
	}
	g.clients = map[string]*Client{}
	return errors.Join(errs...)
}
