package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ClientName is the implementation name sent to upstream servers.
const ClientName = "menu-mcp-gateway"

// Client represents an MCP client connection to a server
type Client struct {
	name    string
	session *mcpsdk.ClientSession
}

// ConnectClient starts the transport described by cfg and performs the MCP
// initialization handshake, announcing itself with the given version.
func ConnectClient(ctx context.Context, name, version string, cfg TransportConfig) (*Client, error) {
	t, err := cfg.sdkTransport()
	if err != nil {
		return nil, err
	}
	return connect(ctx, name, version, t)
}

func connect(ctx context.Context, name, version string, t mcpsdk.Transport) (*Client, error) {
	if version == "" {
		version = "dev"
	}
	info := &mcpsdk.Implementation{Name: ClientName, Version: version}
	session, err := mcpsdk.NewClient(info, nil).Connect(ctx, t, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MCP connection: %w", err)
	}
	return &Client{name: name, session: session}, nil
}

// Name is the name the server was configured under.
func (c *Client) Name() string {
	return c.name
}

// ListTools retrieves all available tools from the MCP server, following
// pagination cursors.
func (c *Client) ListTools(ctx context.Context) ([]*mcpsdk.Tool, error) {
	var all []*mcpsdk.Tool
	params := &mcpsdk.ListToolsParams{}
	for {
		res, err := c.session.ListTools(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to list tools: %w", err)
		}
		all = append(all, res.Tools...)
		if res.NextCursor == "" {
			return all, nil
		}
		params = &mcpsdk.ListToolsParams{Cursor: res.NextCursor}
	}
}

// CallTool executes a tool with the given JSON object arguments.
func (c *Client) CallTool(ctx context.Context, name string, args json.RawMessage) (*mcpsdk.CallToolResult, error) {
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage(`{}`)
	}
	res, err := c.session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call tool %s: %w", name, err)
	}
	return res, nil
}

// Close closes the MCP client connection
func (c *Client) Close() error {
	return c.session.Close()
}
