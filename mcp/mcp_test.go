package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flitsinc/menu-mcp/config"
	"github.com/flitsinc/menu-mcp/telemetry"
	"github.com/flitsinc/menu-mcp/tools"
)

const menuDoc = `{"date":"03.09.2025","total_calories":1472,"items":[{"name":"Fruits","calories":null}]}`

type echoParams struct {
	Text string `json:"text" description:"Text to echo back"`
}

func testToolbox() *tools.Toolbox {
	return tools.Box(
		tools.Func("Get menu", "Return the menu.", "get_menu",
			func(r tools.Runner, _ struct{}) tools.Result {
				r.Report("fetching")
				return tools.SuccessWithJSON("Menu", json.RawMessage(menuDoc))
			}),
		tools.Func("Echo", "Echo the text.", "echo",
			func(r tools.Runner, p echoParams) tools.Result {
				return tools.SuccessWithLabel("Echo", map[string]string{"output": p.Text})
			}),
		tools.Func("Fail", "Always fails.", "fail",
			func(r tools.Runner, _ struct{}) tools.Result {
				return tools.ErrorWithMessage("Error", "Failed to obtain JWT token", errors.New("connection refused"))
			}),
	)
}

func newTestServer(t *testing.T, metrics *telemetry.Metrics) *Server {
	t.Helper()
	s, err := NewServer(testToolbox(), ServerOptions{Metrics: metrics})
	require.NoError(t, err)
	return s
}

func connectInMemory(t *testing.T, s *Server) *Client {
	t.Helper()
	ctx := context.Background()
	ct, st := mcpsdk.NewInMemoryTransports()
	_, err := s.Connect(ctx, st)
	require.NoError(t, err)
	client, err := connect(ctx, "menu", "test", ct)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func textOf(t *testing.T, res *mcpsdk.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestServerListsTools(t *testing.T) {
	client := connectInMemory(t, newTestServer(t, nil))

	list, err := client.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	byName := map[string]*mcpsdk.Tool{}
	for _, tool := range list {
		byName[tool.Name] = tool
	}
	require.Contains(t, byName, "get_menu")
	assert.Equal(t, "Get menu", byName["get_menu"].Title)
	assert.Equal(t, "Return the menu.", byName["get_menu"].Description)
	assert.Equal(t, "object", schemaMap(byName["get_menu"].InputSchema)["type"])

	require.Contains(t, byName, "echo")
	schema := schemaMap(byName["echo"].InputSchema)
	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "text")
}

func TestServerRelaysDocumentUnchanged(t *testing.T) {
	client := connectInMemory(t, newTestServer(t, nil))

	res, err := client.CallTool(context.Background(), "get_menu", nil)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, menuDoc, textOf(t, res))
	assert.NotNil(t, res.StructuredContent)
}

func TestServerErrorResult(t *testing.T) {
	client := connectInMemory(t, newTestServer(t, nil))

	res, err := client.CallTool(context.Background(), "fail", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.JSONEq(t, `{"error":"Failed to obtain JWT token"}`, textOf(t, res))
	assert.Nil(t, res.StructuredContent)
}

func TestServerInvalidArguments(t *testing.T) {
	client := connectInMemory(t, newTestServer(t, nil))

	res, err := client.CallTool(context.Background(), "echo", json.RawMessage(`{"text": 5}`))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "validation error for echo")
}

func TestServerRecordsMetrics(t *testing.T) {
	metrics := telemetry.NewMetrics()
	s := newTestServer(t, metrics)
	client := connectInMemory(t, s)

	ctx := context.Background()
	_, err := client.CallTool(ctx, "get_menu", nil)
	require.NoError(t, err)
	_, err = client.CallTool(ctx, "fail", nil)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	resp, err := http.Get(ts.URL + MetricsPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `menu_mcp_tool_calls_total{outcome="success",tool="get_menu"} 1`)
	assert.Contains(t, string(body), `menu_mcp_tool_calls_total{outcome="error",tool="fail"} 1`)
}

func TestNewServerRejectsNonObjectSchema(t *testing.T) {
	schema := &tools.FunctionSchema{Name: "list", Parameters: tools.ValueSchema{Type: "array"}}
	tb := tools.Box(tools.External("List", schema, func(r tools.Runner, params json.RawMessage) tools.Result {
		return tools.SuccessWithLabel("List", nil)
	}))
	_, err := NewServer(tb, ServerOptions{})
	assert.ErrorContains(t, err, "must be an object")
}

func TestMCPToolBridge(t *testing.T) {
	client := connectInMemory(t, newTestServer(t, nil))
	list, err := client.ListTools(context.Background())
	require.NoError(t, err)

	byName := map[string]tools.Tool{}
	for _, tool := range list {
		byName[tool.Name] = NewMCPTool(client, tool)
	}
	r := tools.NewRunner(context.Background(), nil)

	t.Run("json document", func(t *testing.T) {
		res := byName["get_menu"].Run(r, nil)
		require.NoError(t, res.Error())
		data, ok := res.Content().JSONData()
		require.True(t, ok)
		assert.Equal(t, menuDoc, string(data))
		assert.Equal(t, "Get menu", byName["get_menu"].Label())
	})

	t.Run("error message preserved", func(t *testing.T) {
		res := byName["fail"].Run(r, nil)
		require.Error(t, res.Error())
		assert.Equal(t, `{"error":"Failed to obtain JWT token"}`, res.Content().String())
	})

	t.Run("arguments forwarded", func(t *testing.T) {
		res := byName["echo"].Run(r, json.RawMessage(`{"text":"hello"}`))
		require.NoError(t, res.Error())
		assert.JSONEq(t, `{"output":"hello"}`, res.Content().String())
	})

	t.Run("schema converted", func(t *testing.T) {
		schema := byName["echo"].Schema()
		assert.Equal(t, "echo", schema.Name)
		require.NotNil(t, schema.Parameters.Properties)
		assert.Equal(t, "string", (*schema.Parameters.Properties)["text"].Type)
	})
}

func TestStreamableHTTPGateway(t *testing.T) {
	handler := newTestServer(t, nil).Handler()
	var sawHeader atomic.Bool
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") == "secret" {
			sawHeader.Store(true)
		}
		handler.ServeHTTP(w, r)
	}))
	defer upstream.Close()

	ctx := context.Background()
	gw, err := ConnectGateway(ctx, &config.GatewayConfig{
		MCPServers: map[string]config.MCPServerConfig{
			"menu": {URL: upstream.URL + Path, Headers: map[string]string{"x-api-key": "secret"}},
		},
	}, GatewayOptions{})
	require.NoError(t, err)
	defer gw.Close()

	assert.Equal(t, []string{"menu"}, gw.Servers())
	assert.True(t, sawHeader.Load())

	tool := gw.Toolbox().Get("get_menu")
	require.NotNil(t, tool)
	res := gw.Toolbox().Run(tools.NewRunner(ctx, nil), "get_menu", nil)
	require.NoError(t, res.Error())
	data, ok := res.Content().JSONData()
	require.True(t, ok)
	assert.Equal(t, menuDoc, string(data))
}

func TestGatewayDuplicateTools(t *testing.T) {
	s := newTestServer(t, nil)
	upstream := httptest.NewServer(s.Handler())
	defer upstream.Close()

	_, err := ConnectGateway(context.Background(), &config.GatewayConfig{
		MCPServers: map[string]config.MCPServerConfig{
			"a": {URL: upstream.URL + Path},
			"b": {URL: upstream.URL + Path},
		},
	}, GatewayOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server b: tool")
	assert.Contains(t, err.Error(), "already exists")
}

func TestGatewayConnectFailure(t *testing.T) {
	_, err := ConnectGateway(context.Background(), &config.GatewayConfig{
		MCPServers: map[string]config.MCPServerConfig{
			"missing": {Command: "/nonexistent/menu-mcp"},
		},
	}, GatewayOptions{})
	assert.ErrorContains(t, err, "failed to connect to server missing")
}

func TestConvertToTransportConfig(t *testing.T) {
	tc, err := convertToTransportConfig(config.MCPServerConfig{
		Command: "menu-mcp",
		Args:    []string{"serve"},
		Env:     map[string]string{"A": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, TransportConfig{Type: TransportStdio, Command: "menu-mcp", Args: []string{"serve"}, Env: map[string]string{"A": "1"}}, tc)

	tc, err = convertToTransportConfig(config.MCPServerConfig{URL: "http://localhost:8001/mcp"})
	require.NoError(t, err)
	assert.Equal(t, TransportHTTP, tc.Type)

	_, err = convertToTransportConfig(config.MCPServerConfig{})
	assert.Error(t, err)
	_, err = convertToTransportConfig(config.MCPServerConfig{Command: "a", URL: "http://b"})
	assert.Error(t, err)

	_, err = TransportConfig{Type: "tcp"}.sdkTransport()
	assert.ErrorContains(t, err, "unsupported transport type")
}

func TestConvertMCPInputSchemaToValueSchema(t *testing.T) {
	schema := convertMCPInputSchemaToValueSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "File path"},
			"tags": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required":             []any{"path"},
		"additionalProperties": false,
	})
	assert.Equal(t, "object", schema.Type)
	require.NotNil(t, schema.Properties)
	assert.Equal(t, "File path", (*schema.Properties)["path"].Description)
	require.NotNil(t, (*schema.Properties)["tags"].Items)
	assert.Equal(t, "string", (*schema.Properties)["tags"].Items.Type)
	assert.Equal(t, []string{"path"}, schema.Required)
	assert.Equal(t, false, schema.AdditionalProperties)

	assert.Equal(t, "object", convertMCPInputSchemaToValueSchema(map[string]any{}).Type)
}

func TestConvertMCPInputSchemaKeepsNestedKeywords(t *testing.T) {
	schema := convertMCPInputSchemaToValueSchema(map[string]any{
		"properties": map[string]any{
			"dish": map[string]any{"type": "string", "enum": []any{"Rice", "Soup"}},
			"qty":  map[string]any{"anyOf": []any{map[string]any{"type": "integer"}, map[string]any{"type": "null"}}},
			"note": map[string]any{"description": "Free text"},
		},
	})
	assert.Equal(t, "object", schema.Type)
	require.NotNil(t, schema.Properties)
	props := *schema.Properties

	assert.Equal(t, []any{"Rice", "Soup"}, props["dish"].Enum)
	assert.Empty(t, props["qty"].Type)
	require.Len(t, props["qty"].AnyOf, 2)
	assert.Equal(t, "integer", props["qty"].AnyOf[0].Type)
	assert.Equal(t, "null", props["qty"].AnyOf[1].Type)
	assert.Empty(t, props["note"].Type)
	assert.Equal(t, "Free text", props["note"].Description)
}

const orderSchema = `{
	"type": "object",
	"properties": {
		"dish": {"type": "string", "enum": ["Rice", "Soup"]},
		"qty": {"anyOf": [{"type": "integer"}, {"type": "null"}]}
	},
	"required": ["dish"]
}`

// newOrderUpstream serves a single "order" tool with a hand-written schema
// and records the client version of each call.
func newOrderUpstream(t *testing.T, calls *atomic.Int32, clientVersion *atomic.Value) *httptest.Server {
	t.Helper()
	var input map[string]any
	require.NoError(t, json.Unmarshal([]byte(orderSchema), &input))

	upstream := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "kitchen", Version: "0.1.0"}, nil)
	upstream.AddTool(&mcpsdk.Tool{Name: "order", Description: "Order a dish.", InputSchema: input},
		func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			calls.Add(1)
			if params := req.Session.InitializeParams(); params != nil && params.ClientInfo != nil {
				clientVersion.Store(params.ClientInfo.Version)
			}
			return &mcpsdk.CallToolResult{
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(req.Params.Arguments)}},
			}, nil
		})
	handler := mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server { return upstream }, nil)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestGatewayPassesUpstreamSchemaThrough(t *testing.T) {
	var calls atomic.Int32
	var clientVersion atomic.Value
	upstream := newOrderUpstream(t, &calls, &clientVersion)

	ctx := context.Background()
	gw, err := ConnectGateway(ctx, &config.GatewayConfig{
		MCPServers: map[string]config.MCPServerConfig{"kitchen": {URL: upstream.URL}},
	}, GatewayOptions{Version: "2.3.4"})
	require.NoError(t, err)
	defer gw.Close()

	s, err := NewServer(gw.Toolbox(), ServerOptions{})
	require.NoError(t, err)
	client := connectInMemory(t, s)

	list, err := client.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	advertised, err := json.Marshal(list[0].InputSchema)
	require.NoError(t, err)
	assert.JSONEq(t, orderSchema, string(advertised))

	t.Run("valid arguments forwarded", func(t *testing.T) {
		res, err := client.CallTool(ctx, "order", json.RawMessage(`{"dish":"Soup","qty":null}`))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.JSONEq(t, `{"dish":"Soup","qty":null}`, textOf(t, res))
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, "2.3.4", clientVersion.Load())
	})

	t.Run("enum enforced before forwarding", func(t *testing.T) {
		res, err := client.CallTool(ctx, "order", json.RawMessage(`{"dish":"Pizza"}`))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, textOf(t, res), "validation error for order")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("anyOf enforced before forwarding", func(t *testing.T) {
		res, err := client.CallTool(ctx, "order", json.RawMessage(`{"dish":"Rice","qty":"two"}`))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestConnectDefaultsClientVersion(t *testing.T) {
	var calls atomic.Int32
	var clientVersion atomic.Value
	upstream := newOrderUpstream(t, &calls, &clientVersion)

	ctx := context.Background()
	client, err := ConnectClient(ctx, "kitchen", "", TransportConfig{Type: TransportHTTP, URL: upstream.URL})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.CallTool(ctx, "order", json.RawMessage(`{"dish":"Rice"}`))
	require.NoError(t, err)
	assert.Equal(t, "dev", clientVersion.Load())
}
