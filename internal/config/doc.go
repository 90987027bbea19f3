// Package config handles configuration loading for enapter-mcp-server.
//
// # Overview
//
// Configuration is assembled from three layers, lowest precedence first:
//
//  1. Built-in defaults (Default)
//  2. An optional YAML or TOML file passed with --config
//  3. Environment variables and command-line flags, bound through viper
//
// # Configuration File
//
// Files ending in .toml are parsed as TOML, everything else as YAML.
// Values can reference environment variables:
//
//	oauth_proxy:
//	  client_secret: "${OAUTH_CLIENT_SECRET}"
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	server:
//	  shutdown_timeout: "5s"
//	enapter:
//	  timeout: "30s"
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  address: "127.0.0.1:8000"    # ENAPTER_MCP_SERVER_ADDRESS
//	  logo_url: ""                 # ENAPTER_MCP_SERVER_LOGO_URL
//	  shutdown_timeout: "5s"
//
// Upstream API:
//
//	enapter:
//	  http_api_url: "https://api.enapter.com"  # ENAPTER_HTTP_API_URL
//
// OAuth proxy (every key maps to ENAPTER_MCP_SERVER_OAUTH_PROXY_<KEY>):
//
//	oauth_proxy:
//	  enabled: true
//	  introspection_url: "https://idp.example.com/introspect"
//	  authorization_url: "https://idp.example.com/authorize"
//	  token_url: "https://idp.example.com/token"
//	  user_info_url: "https://idp.example.com/userinfo"
//	  protected_resource_url: "https://mcp.example.com"
//	  forward_pkce: true
//	  required_scopes: "openid,profile"
//	  allowed_redirect_urls: "http://localhost:*"
//	  client_id: "enapter-mcp"
//	  client_secret: "${OAUTH_CLIENT_SECRET}"
//	  jwt_signing_key: "${JWT_SIGNING_KEY}"
//	  jwt_store_url: "disk:///var/lib/enapter-mcp-server"
//
// List settings accept a sequence or a comma-separated string; an empty
// string means no restriction.
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
//	v, _ := config.NewViper()
//	_ = v.BindPFlag("server.address", cmd.Flags().Lookup("address"))
//	cfg, err := config.Load(path, config.FromViper(v))
package config
