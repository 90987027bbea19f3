// ABOUTME: Environment variable and command-line flag overrides backed by viper
// ABOUTME: Only keys explicitly set in the environment or on the command line override the file

package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type setting struct {
	key   string
	env   string
	apply func(cfg *Config, v *viper.Viper, key string)
}

func setString(field func(*Config) *string) func(*Config, *viper.Viper, string) {
	return func(cfg *Config, v *viper.Viper, key string) {
		*field(cfg) = v.GetString(key)
	}
}

func setBool(field func(*Config) *bool) func(*Config, *viper.Viper, string) {
	return func(cfg *Config, v *viper.Viper, key string) {
		*field(cfg) = v.GetBool(key)
	}
}

func setList(field func(*Config) *List) func(*Config, *viper.Viper, string) {
	return func(cfg *Config, v *viper.Viper, key string) {
		*field(cfg) = SplitList(v.GetString(key))
	}
}

const oauthEnvPrefix = "ENAPTER_MCP_SERVER_OAUTH_PROXY_"

var settings = []setting{
	{"server.address", "ENAPTER_MCP_SERVER_ADDRESS", setString(func(c *Config) *string { return &c.Server.Address })},
	{"server.logo_url", "ENAPTER_MCP_SERVER_LOGO_URL", setString(func(c *Config) *string { return &c.Server.LogoURL })},
	{"server.shutdown_timeout", "ENAPTER_MCP_SERVER_SHUTDOWN_TIMEOUT", setString(func(c *Config) *string { return &c.Server.ShutdownTimeoutRaw })},

	{"enapter.http_api_url", "ENAPTER_HTTP_API_URL", setString(func(c *Config) *string { return &c.Enapter.HTTPAPIURL })},
	{"enapter.timeout", "ENAPTER_HTTP_API_TIMEOUT", setString(func(c *Config) *string { return &c.Enapter.TimeoutRaw })},

	{"oauth_proxy.enabled", oauthEnvPrefix + "ENABLED", setBool(func(c *Config) *bool { return &c.OAuthProxy.Enabled })},
	{"oauth_proxy.introspection_url", oauthEnvPrefix + "INTROSPECTION_URL", setString(func(c *Config) *string { return &c.OAuthProxy.IntrospectionURL })},
	{"oauth_proxy.authorization_url", oauthEnvPrefix + "AUTHORIZATION_URL", setString(func(c *Config) *string { return &c.OAuthProxy.AuthorizationURL })},
	{"oauth_proxy.token_url", oauthEnvPrefix + "TOKEN_URL", setString(func(c *Config) *string { return &c.OAuthProxy.TokenURL })},
	{"oauth_proxy.user_info_url", oauthEnvPrefix + "USER_INFO_URL", setString(func(c *Config) *string { return &c.OAuthProxy.UserInfoURL })},
	{"oauth_proxy.protected_resource_url", oauthEnvPrefix + "PROTECTED_RESOURCE_URL", setString(func(c *Config) *string { return &c.OAuthProxy.ProtectedResourceURL })},
	{"oauth_proxy.forward_pkce", oauthEnvPrefix + "FORWARD_PKCE", setBool(func(c *Config) *bool { return &c.OAuthProxy.ForwardPKCE })},
	{"oauth_proxy.required_scopes", oauthEnvPrefix + "REQUIRED_SCOPES", setList(func(c *Config) *List { return &c.OAuthProxy.RequiredScopes })},
	{"oauth_proxy.allowed_redirect_urls", oauthEnvPrefix + "ALLOWED_REDIRECT_URLS", setList(func(c *Config) *List { return &c.OAuthProxy.AllowedRedirectURLs })},
	{"oauth_proxy.client_id", oauthEnvPrefix + "CLIENT_ID", setString(func(c *Config) *string { return &c.OAuthProxy.ClientID })},
	{"oauth_proxy.client_secret", oauthEnvPrefix + "CLIENT_SECRET", setString(func(c *Config) *string { return &c.OAuthProxy.ClientSecret })},
	{"oauth_proxy.jwt_signing_key", oauthEnvPrefix + "JWT_SIGNING_KEY", setString(func(c *Config) *string { return &c.OAuthProxy.JWTSigningKey })},
	{"oauth_proxy.jwt_store_url", oauthEnvPrefix + "JWT_STORE_URL", setString(func(c *Config) *string { return &c.OAuthProxy.JWTStoreURL })},

	{"logging.level", "ENAPTER_MCP_SERVER_LOG_LEVEL", setString(func(c *Config) *string { return &c.Logging.Level })},
	{"logging.format", "ENAPTER_MCP_SERVER_LOG_FORMAT", setString(func(c *Config) *string { return &c.Logging.Format })},
}

// ViperOverlay applies settings found in a viper instance.
type ViperOverlay struct {
	v *viper.Viper
}

// NewViper returns a viper instance with every setting bound to its
// environment variable. Callers bind command-line flags to the same keys.
func NewViper() (*viper.Viper, error) {
	v := viper.New()
	for _, s := range settings {
		if err := v.BindEnv(s.key, s.env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", s.env, err)
		}
	}
	return v, nil
}

// FromViper wraps v as an Overlay.
func FromViper(v *viper.Viper) *ViperOverlay {
	return &ViperOverlay{v: v}
}

// Apply copies every key set in the environment or on the command line.
func (o *ViperOverlay) Apply(cfg *Config) error {
	for _, s := range settings {
		if o.v.IsSet(s.key) {
			s.apply(cfg, o.v, s.key)
		}
	}
	return nil
}

// EnvNames maps each setting key to its environment variable, for help text.
func EnvNames() map[string]string {
	out := make(map[string]string, len(settings))
	for _, s := range settings {
		out[s.key] = s.env
	}
	return out
}
