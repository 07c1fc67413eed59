// Package config holds the settings of the menu tool server and the gateway
// configuration file format.
package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Transports the tool server can speak.
const (
	TransportStreamableHTTP = "streamable-http"
	TransportStdio          = "stdio"
)

const (
	DefaultHost             = "127.0.0.1"
	DefaultPort             = 8001
	DefaultTokenEndpoint    = "http://localhost:5000/api/token"
	DefaultResourceEndpoint = "http://localhost:5000/api/menu"
	DefaultTimeout          = 5 * time.Second
	DefaultLogLevel         = "info"
)

// Settings configures the tool server. It is built once at startup and passed
// to the components that need it.
type Settings struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	TokenEndpoint    string        `mapstructure:"token_endpoint"`
	ResourceEndpoint string        `mapstructure:"resource_endpoint"`
	AuthEnabled      bool          `mapstructure:"auth_enabled"`
	Insecure         bool          `mapstructure:"insecure"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Transport        string        `mapstructure:"transport"`
	LogLevel         string        `mapstructure:"log_level"`
}

// Default returns the settings used when nothing is overridden. TLS
// verification stays on unless Insecure is set explicitly.
func Default() Settings {
	return Settings{
		Host:             DefaultHost,
		Port:             DefaultPort,
		TokenEndpoint:    DefaultTokenEndpoint,
		ResourceEndpoint: DefaultResourceEndpoint,
		AuthEnabled:      true,
		Insecure:         false,
		Timeout:          DefaultTimeout,
		Transport:        TransportStreamableHTTP,
		LogLevel:         DefaultLogLevel,
	}
}

// envKeys maps setting keys to the environment variables that override them.
var envKeys = map[string][]string{
	"host":              {"MENU_MCP_HOST"},
	"port":              {"MENU_MCP_PORT"},
	"token_endpoint":    {"JWT_TOKEN_URL", "MENU_MCP_TOKEN_ENDPOINT"},
	"resource_endpoint": {"MENU_API_URL", "MENU_MCP_RESOURCE_ENDPOINT"},
	"auth_enabled":      {"MENU_MCP_AUTH"},
	"insecure":          {"MENU_MCP_INSECURE"},
	"timeout":           {"MENU_MCP_TIMEOUT"},
	"transport":         {"MENU_MCP_TRANSPORT"},
	"log_level":         {"MENU_MCP_LOG_LEVEL"},
}

// flagKeys maps command line flags to setting keys.
var flagKeys = map[string]string{
	"host":      "host",
	"port":      "port",
	"token-url": "token_endpoint",
	"menu-url":  "resource_endpoint",
	"auth":      "auth_enabled",
	"insecure":  "insecure",
	"timeout":   "timeout",
	"transport": "transport",
	"log-level": "log_level",
}

// RegisterFlags adds the settings flags to fs with their defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("host", d.Host, "bind address of the tool server")
	fs.Int("port", d.Port, "bind port of the tool server")
	fs.String("token-url", d.TokenEndpoint, "token issuer endpoint (POST)")
	fs.String("menu-url", d.ResourceEndpoint, "menu resource endpoint (GET)")
	fs.Bool("auth", d.AuthEnabled, "acquire a bearer token before fetching the menu")
	fs.Bool("insecure", d.Insecure, "skip TLS certificate verification for upstream calls")
	fs.Duration("timeout", d.Timeout, "timeout for each upstream HTTP request")
	fs.String("transport", d.Transport, "tool server transport: streamable-http or stdio")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn or error")
}

// Load merges defaults, environment and the flags of fs (when set) into
// Settings and validates the result. Flags win over environment.
func Load(fs *pflag.FlagSet) (Settings, error) {
	v := viper.New()
	d := Default()
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)
	v.SetDefault("token_endpoint", d.TokenEndpoint)
	v.SetDefault("resource_endpoint", d.ResourceEndpoint)
	v.SetDefault("auth_enabled", d.AuthEnabled)
	v.SetDefault("insecure", d.Insecure)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("transport", d.Transport)
	v.SetDefault("log_level", d.LogLevel)

	for key, names := range envKeys {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Settings{}, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Settings{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	s.Transport = strings.ToLower(strings.TrimSpace(s.Transport))
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks that the settings describe a runnable server.
func (s Settings) Validate() error {
	var errs []error
	if s.Port <= 0 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", s.Port))
	}
	if err := validateURL("resource_endpoint", s.ResourceEndpoint); err != nil {
		errs = append(errs, err)
	}
	if s.AuthEnabled {
		if err := validateURL("token_endpoint", s.TokenEndpoint); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", s.Timeout))
	}
	switch s.Transport {
	case TransportStreamableHTTP, TransportStdio:
	default:
		errs = append(errs, fmt.Errorf("unsupported transport %q", s.Transport))
	}
	return errors.Join(errs...)
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL, got %q", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %q", name, raw)
	}
	return nil
}

// Addr returns host:port for the streamable HTTP listener.
func (s Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// HTTPClient returns the client used for token and menu requests.
func (s Settings) HTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: s.Insecure, //nolint:gosec // explicit opt-in via --insecure
	}
	return &http.Client{
		Timeout:   s.Timeout,
		Transport: transport,
	}
}
