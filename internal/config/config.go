// ABOUTME: Configuration loading and parsing for enapter-mcp-server
// ABOUTME: Defaults, then a YAML/TOML file with ${VAR} expansion, then env vars and flags via viper

package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Defaults used when neither the config file nor the environment sets a value.
const (
	DefaultAddress         = "127.0.0.1:8000"
	DefaultHTTPAPIURL      = "https://api.enapter.com"
	DefaultShutdownTimeout = "5s"
	DefaultHTTPAPITimeout  = "30s"
)

// Config represents the complete enapter-mcp-server configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" toml:"server"`
	Enapter    EnapterConfig    `yaml:"enapter" toml:"enapter"`
	OAuthProxy OAuthProxyConfig `yaml:"oauth_proxy" toml:"oauth_proxy"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
}

// ServerConfig holds the MCP listener configuration
type ServerConfig struct {
	Address         string        `yaml:"address" toml:"address"`
	LogoURL         string        `yaml:"logo_url" toml:"logo_url"`
	ShutdownTimeout time.Duration `yaml:"-" toml:"-"`

	// Raw string value for file unmarshaling
	ShutdownTimeoutRaw string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// EnapterConfig holds settings for the upstream Enapter HTTP API
type EnapterConfig struct {
	HTTPAPIURL string        `yaml:"http_api_url" toml:"http_api_url"`
	Timeout    time.Duration `yaml:"-" toml:"-"`

	TimeoutRaw string `yaml:"timeout" toml:"timeout"`
}

// OAuthProxyConfig holds the OAuth authorization-code proxy configuration.
// When disabled, callers authenticate with x-enapter-auth-* headers.
type OAuthProxyConfig struct {
	Enabled              bool   `yaml:"enabled" toml:"enabled"`
	IntrospectionURL     string `yaml:"introspection_url" toml:"introspection_url"`
	AuthorizationURL     string `yaml:"authorization_url" toml:"authorization_url"`
	TokenURL             string `yaml:"token_url" toml:"token_url"`
	UserInfoURL          string `yaml:"user_info_url" toml:"user_info_url"`
	ProtectedResourceURL string `yaml:"protected_resource_url" toml:"protected_resource_url"`
	ForwardPKCE          bool   `yaml:"forward_pkce" toml:"forward_pkce"`
	RequiredScopes       List   `yaml:"required_scopes" toml:"required_scopes"`
	AllowedRedirectURLs  List   `yaml:"allowed_redirect_urls" toml:"allowed_redirect_urls"`
	ClientID             string `yaml:"client_id" toml:"client_id"`
	ClientSecret         string `yaml:"client_secret" toml:"client_secret"`
	JWTSigningKey        string `yaml:"jwt_signing_key" toml:"jwt_signing_key"`
	JWTStoreURL          string `yaml:"jwt_store_url" toml:"jwt_store_url"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:            DefaultAddress,
			ShutdownTimeoutRaw: DefaultShutdownTimeout,
		},
		Enapter: EnapterConfig{
			HTTPAPIURL: DefaultHTTPAPIURL,
			TimeoutRaw: DefaultHTTPAPITimeout,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, the optional file at path and
// the optional overlay, then parses durations and validates the result.
// Files ending in .toml are parsed as TOML, anything else as YAML.
func Load(path string, overlay Overlay) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if overlay != nil {
		if err := overlay.Apply(cfg); err != nil {
			return nil, fmt.Errorf("applying overrides: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Overlay applies higher-precedence settings on top of a file configuration.
type Overlay interface {
	Apply(cfg *Config) error
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(expanded, c); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		return fmt.Errorf("server.address %q must be host:port: %w", c.Server.Address, err)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}

	if err := requireURL("enapter.http_api_url", c.Enapter.HTTPAPIURL); err != nil {
		return err
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q must be text or json", c.Logging.Format)
	}

	if c.OAuthProxy.Enabled {
		if err := c.OAuthProxy.validate(); err != nil {
			return err
		}
	}

	return nil
}

func (o OAuthProxyConfig) validate() error {
	urls := []struct {
		name  string
		value string
	}{
		{"oauth_proxy.introspection_url", o.IntrospectionURL},
		{"oauth_proxy.authorization_url", o.AuthorizationURL},
		{"oauth_proxy.token_url", o.TokenURL},
		{"oauth_proxy.user_info_url", o.UserInfoURL},
		{"oauth_proxy.protected_resource_url", o.ProtectedResourceURL},
	}
	for _, u := range urls {
		if err := requireURL(u.name, u.value); err != nil {
			return err
		}
	}

	if o.ClientID == "" {
		return fmt.Errorf("oauth_proxy.client_id is required when oauth_proxy is enabled")
	}
	if o.JWTSigningKey == "" {
		return fmt.Errorf("oauth_proxy.jwt_signing_key must be set when oauth_proxy is enabled")
	}

	if o.JWTStoreURL != "" {
		scheme, _, _ := strings.Cut(o.JWTStoreURL, "://")
		if scheme != "memory" && scheme != "disk" {
			return fmt.Errorf("oauth_proxy.jwt_store_url %q: scheme must be memory or disk", o.JWTStoreURL)
		}
	}
	return nil
}

func requireURL(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s %q must be an absolute URL", name, value)
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.ShutdownTimeoutRaw != "" {
		cfg.Server.ShutdownTimeout, err = time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
		}
	}

	if cfg.Enapter.TimeoutRaw != "" {
		cfg.Enapter.Timeout, err = time.ParseDuration(cfg.Enapter.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing enapter timeout %q: %w", cfg.Enapter.TimeoutRaw, err)
		}
	}

	return nil
}
