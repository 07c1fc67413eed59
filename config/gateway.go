package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"sigs.k8s.io/yaml"
)

// GatewayConfig is the file the gateway mode reads: which MCP servers to
// front, and where to expose them.
type GatewayConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	Server     GatewayServer              `json:"server"`
}

// MCPServerConfig represents a single MCP server configuration
type MCPServerConfig struct {
	// For stdio-based servers
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`

	// For HTTP-based servers
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// GatewayServer is where the gateway listens.
type GatewayServer struct {
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	LogLevel string `json:"log_level,omitempty"`
}

// Addr returns host:port, falling back to the tool server defaults.
func (s GatewayServer) Addr() string {
	host, port := s.Host, s.Port
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// LoadGateway reads a gateway config file. Files ending in .yaml or .yml are
// YAML; anything else is JSON, where comments and trailing commas are allowed.
func LoadGateway(path string) (*GatewayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseGatewayYAML(data)
	default:
		return ParseGatewayJSON(data)
	}
}

// ParseGatewayJSON parses a JSON (with comments) gateway config.
func ParseGatewayJSON(data []byte) (*GatewayConfig, error) {
	var cfg GatewayConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, cfg.Validate()
}

// ParseGatewayYAML parses a YAML gateway config.
func ParseGatewayYAML(data []byte) (*GatewayConfig, error) {
	var cfg GatewayConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return &cfg, cfg.Validate()
}

// Validate checks every server entry names exactly one way to reach it.
func (c *GatewayConfig) Validate() error {
	if len(c.MCPServers) == 0 {
		return fmt.Errorf("config has no mcpServers")
	}
	for name, s := range c.MCPServers {
		switch {
		case s.Command != "" && s.URL != "":
			return fmt.Errorf("server %s: command and url are mutually exclusive", name)
		case s.Command == "" && s.URL == "":
			return fmt.Errorf("server %s: must specify either command or url", name)
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	return nil
}

// ExampleGateway returns a config that fronts this binary's own stdio server.
func ExampleGateway() GatewayConfig {
	return GatewayConfig{
		MCPServers: map[string]MCPServerConfig{
			"menu": {
				Command: "menu-mcp",
				Args:    []string{"serve", "--transport", "stdio"},
				Env: map[string]string{
					"JWT_TOKEN_URL": DefaultTokenEndpoint,
					"MENU_API_URL":  DefaultResourceEndpoint,
				},
			},
		},
		Server: GatewayServer{
			Host:     DefaultHost,
			Port:     8000,
			LogLevel: DefaultLogLevel,
		},
	}
}

// WriteExampleGateway writes ExampleGateway to path as indented JSON.
func WriteExampleGateway(path string) error {
	data, err := json.MarshalIndent(ExampleGateway(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write example config: %w", err)
	}
	return nil
}
