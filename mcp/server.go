// Package mcp exposes a tools.Toolbox as an MCP server and bridges the tools
// of upstream MCP servers back into a Toolbox.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/flitsinc/menu-mcp/content"
	"github.com/flitsinc/menu-mcp/telemetry"
	"github.com/flitsinc/menu-mcp/tools"
)

const (
	DefaultName = "Menu MCP"
	// Path is where the streamable HTTP endpoint is mounted.
	Path        = "/mcp"
	MetricsPath = "/metrics"
)

// ServerOptions configures a Server.
type ServerOptions struct {
	Name    string
	Version string
	Metrics *telemetry.Metrics
	Logger  *zap.Logger
}

// Server serves the tools of a Toolbox over MCP.
type Server struct {
	toolbox *tools.Toolbox
	server  *mcpsdk.Server
	metrics *telemetry.Metrics
	logger  *zap.Logger
}

// NewServer registers every tool of toolbox on a new MCP server.
func NewServer(toolbox *tools.Toolbox, opts ServerOptions) (*Server, error) {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		toolbox: toolbox,
		server: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    opts.Name,
			Version: opts.Version,
		}, &mcpsdk.ServerOptions{HasTools: true}),
		metrics: opts.Metrics,
		logger:  logger.Named("mcp"),
	}
	for _, tool := range toolbox.All() {
		def, err := sdkTool(tool)
		if err != nil {
			return nil, err
		}
		s.server.AddTool(def, s.handler(tool))
	}
	return s, nil
}

// sdkTool describes tool in MCP terms. The input schema is always an object.
func sdkTool(tool tools.Tool) (*mcpsdk.Tool, error) {
	data, err := tool.Schema().ParametersJSON()
	if err != nil {
		return nil, fmt.Errorf("encode schema for %s: %w", tool.FuncName(), err)
	}
	input := map[string]any{}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("decode schema for %s: %w", tool.FuncName(), err)
	}
	if t, _ := input["type"].(string); t != "object" {
		return nil, fmt.Errorf("tool %s: arguments schema must be an object, got %q", tool.FuncName(), t)
	}
	return &mcpsdk.Tool{
		Name:        tool.FuncName(),
		Title:       tool.Label(),
		Description: tool.Description(),
		InputSchema: input,
	}, nil
}

func (s *Server) handler(tool tools.Tool) mcpsdk.ToolHandler {
	name := tool.FuncName()
	return func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args json.RawMessage
		if req.Params != nil {
			args = req.Params.Arguments
		}
		start := time.Now()
		runner := tools.NewRunner(ctx, func(status string) {
			s.logger.Debug("tool status", zap.String("tool", name), zap.String("status", status))
		})
		res := tool.Run(runner, args)
		elapsed := time.Since(start)

		err := res.Error()
		s.metrics.ObserveToolCall(name, err != nil, elapsed)
		if err != nil {
			s.logger.Warn("tool call failed",
				zap.String("tool", name),
				zap.String("label", res.Label()),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
		} else {
			s.logger.Debug("tool call", zap.String("tool", name), zap.Duration("elapsed", elapsed))
		}
		return callToolResult(res), nil
	}
}

// callToolResult renders a tools.Result. JSON items are sent as text exactly
// as produced; a successful JSON object is also attached as structured content.
func callToolResult(res tools.Result) *mcpsdk.CallToolResult {
	c := res.Content()
	out := &mcpsdk.CallToolResult{
		Content: make([]mcpsdk.Content, 0, len(c)),
		IsError: res.Error() != nil,
	}
	for _, item := range c {
		switch item := item.(type) {
		case *content.Text:
			out.Content = append(out.Content, &mcpsdk.TextContent{Text: item.Text})
		case *content.JSON:
			out.Content = append(out.Content, &mcpsdk.TextContent{Text: string(item.Data)})
		}
	}
	if !out.IsError {
		if data, ok := c.JSONData(); ok && isObject(data) {
			out.StructuredContent = data
		}
	}
	return out
}

func isObject(data json.RawMessage) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

// Connect serves one session over t. It is mostly useful with in-memory
// transports.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

// ServeStdio serves a single session on stdin/stdout until the client
// disconnects or ctx is done.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("serving on stdio", zap.Int("tools", len(s.toolbox.All())))
	if err := s.server.Run(ctx, &mcpsdk.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

// Handler returns the streamable HTTP handler, plus the metrics endpoint when
// metrics are configured.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Handle(Path, mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return s.server
	}, nil))
	if s.metrics != nil {
		r.Handle(MetricsPath, s.metrics.Handler()).Methods(http.MethodGet)
	}
	return r
}

// ListenAndServe serves Handler on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("serving streamable http",
			zap.String("addr", addr),
			zap.String("path", Path),
			zap.Int("tools", len(s.toolbox.All())))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("mcp server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("mcp server shutdown: %w", err)
		}
		s.logger.Info("mcp server stopped")
		return nil
	}
}
