package mcp

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/flitsinc/menu-mcp/config"
)

// Transport kinds an upstream server can be reached over.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// TransportConfig says how to reach one upstream MCP server.
type TransportConfig struct {
	Type string

	// For stdio
	Command string
	Args    []string
	Env     map[string]string

	// For HTTP
	URL     string
	Headers map[string]string
}

// convertToTransportConfig converts an MCPServerConfig to a TransportConfig
func convertToTransportConfig(cfg config.MCPServerConfig) (TransportConfig, error) {
	switch {
	case cfg.Command != "" && cfg.URL != "":
		return TransportConfig{}, errors.New("server config must not specify both command and url")
	case cfg.Command != "":
		return TransportConfig{
			Type:    TransportStdio,
			Command: cfg.Command,
			Args:    cfg.Args,
			Env:     cfg.Env,
		}, nil
	case cfg.URL != "":
		return TransportConfig{
			Type:    TransportHTTP,
			URL:     cfg.URL,
			Headers: cfg.Headers,
		}, nil
	default:
		return TransportConfig{}, errors.New("server config must specify either command or url")
	}
}

// sdkTransport builds the client transport. Stdio servers inherit the
// environment of this process plus their own Env.
func (c TransportConfig) sdkTransport() (mcpsdk.Transport, error) {
	switch c.Type {
	case TransportStdio:
		if c.Command == "" {
			return nil, errors.New("command is required for stdio transport")
		}
		cmd := exec.Command(c.Command, c.Args...)
		cmd.Env = os.Environ()
		for key, value := range c.Env {
			cmd.Env = append(cmd.Env, key+"="+value)
		}
		cmd.Stderr = os.Stderr
		return &mcpsdk.CommandTransport{Command: cmd}, nil
	case TransportHTTP:
		if c.URL == "" {
			return nil, errors.New("url is required for http transport")
		}
		headers := http.Header{}
		for key, value := range c.Headers {
			name := http.CanonicalHeaderKey(strings.TrimSpace(key))
			if name == "" {
				return nil, errors.New("http headers contain empty key")
			}
			headers.Set(name, value)
		}
		return &mcpsdk.StreamableClientTransport{
			Endpoint: c.URL,
			HTTPClient: &http.Client{
				Transport: &headerRoundTripper{base: http.DefaultTransport, headers: headers},
			},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %q", c.Type)
	}
}

// headerRoundTripper sets fixed headers on every request.
type headerRoundTripper struct {
	base    http.RoundTripper
	headers http.Header
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(h.headers) > 0 {
		req = req.Clone(req.Context())
		for key, values := range h.headers {
			req.Header.Del(key)
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}
	}
	return h.base.RoundTrip(req)
}
