// ABOUTME: OAuth 2.1 authorization-code proxy in front of the upstream identity provider
// ABOUTME: Serves discovery metadata, client registration, authorize/callback/token and bearer checks

package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/enapter/mcp-server/internal/config"
	"github.com/enapter/mcp-server/internal/kvstore"
)

// Store collections used by the proxy.
const (
	collectionClients      = "clients"
	collectionTransactions = "transactions"
	collectionCodes        = "codes"
	collectionGrants       = "grants"
)

// Lifetimes of proxy state.
const (
	transactionTTL   = 10 * time.Minute
	codeTTL          = 5 * time.Minute
	defaultAccessTTL = time.Hour
	refreshTTL       = 30 * 24 * time.Hour
)

// CallbackPath is where the upstream provider redirects after authorization.
const CallbackPath = "/auth/callback"

// ProxyOptions are optional collaborators of the OAuth proxy.
type ProxyOptions struct {
	// ResourcePath is the path of the protected MCP endpoint, default "/mcp".
	ResourcePath string
	// HTTPClient is used for every upstream identity provider call.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// OAuthProxy lets MCP clients run a standard OAuth flow against this server
// while the actual authorization happens at the upstream provider. Tokens
// handed to clients are local JWTs whose IDs map to upstream grants in the
// store.
type OAuthProxy struct {
	cfg          config.OAuthProxyConfig
	baseURL      string
	resourceURL  string
	store        kvstore.Store
	issuer       *TokenIssuer
	introspector *Introspector
	upstream     *oauth2.Config
	http         *http.Client
	logger       *slog.Logger
	now          func() time.Time
}

// NewOAuthProxy fails immediately when the configuration has no signing key.
func NewOAuthProxy(cfg config.OAuthProxyConfig, store kvstore.Store, opts ProxyOptions) (*OAuthProxy, error) {
	if cfg.JWTSigningKey == "" {
		return nil, fmt.Errorf("oauth proxy: %w", ErrMissingSignKey)
	}
	if store == nil {
		return nil, errors.New("oauth proxy: token store is required")
	}

	resourcePath := opts.ResourcePath
	if resourcePath == "" {
		resourcePath = "/mcp"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	baseURL := strings.TrimRight(cfg.ProtectedResourceURL, "/")
	resourceURL := baseURL + resourcePath

	issuer, err := NewTokenIssuer(cfg.JWTSigningKey, baseURL, resourceURL)
	if err != nil {
		return nil, fmt.Errorf("oauth proxy: %w", err)
	}

	return &OAuthProxy{
		cfg:          cfg,
		baseURL:      baseURL,
		resourceURL:  resourceURL,
		store:        store,
		issuer:       issuer,
		introspector: NewIntrospector(cfg.IntrospectionURL, cfg.ClientID, cfg.ClientSecret, cfg.RequiredScopes, httpClient),
		upstream: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizationURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: baseURL + CallbackPath,
		},
		http:   httpClient,
		logger: logger.With("component", "oauth_proxy"),
		now:    time.Now,
	}, nil
}

// Mount registers the proxy's public endpoints on r.
func (p *OAuthProxy) Mount(r chi.Router) {
	r.Get("/.well-known/oauth-protected-resource", p.handleProtectedResourceMetadata)
	r.Get("/.well-known/oauth-protected-resource/*", p.handleProtectedResourceMetadata)
	r.Get("/.well-known/oauth-authorization-server", p.handleAuthorizationServerMetadata)
	r.Post("/register", p.handleRegister)
	r.Get("/authorize", p.handleAuthorize)
	r.Get(CallbackPath, p.handleCallback)
	r.Post("/token", p.handleToken)
}

// ResourceMetadataURL is advertised in WWW-Authenticate challenges.
func (p *OAuthProxy) ResourceMetadataURL() string {
	return p.baseURL + "/.well-known/oauth-protected-resource"
}

func (p *OAuthProxy) scopesSupported() []string {
	if len(p.cfg.RequiredScopes) == 0 {
		return []string{}
	}
	return p.cfg.RequiredScopes
}

func (p *OAuthProxy) handleProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"resource":                 p.resourceURL,
		"authorization_servers":    []string{p.baseURL},
		"scopes_supported":         p.scopesSupported(),
		"bearer_methods_supported": []string{"header"},
	})
}

func (p *OAuthProxy) handleAuthorizationServerMetadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                p.baseURL,
		"authorization_endpoint":                p.baseURL + "/authorize",
		"token_endpoint":                        p.baseURL + "/token",
		"registration_endpoint":                 p.baseURL + "/register",
		"scopes_supported":                      p.scopesSupported(),
		"response_types_supported":              []string{"code"},
		"grant_types_supported":                 []string{"authorization_code", "refresh_token"},
		"token_endpoint_auth_methods_supported": supportedAuthMethods,
		"code_challenge_methods_supported":      []string{"S256"},
	})
}

// putJSON stores v as JSON.
func (p *OAuthProxy) putJSON(ctx context.Context, collection, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s entry: %w", collection, err)
	}
	return p.store.Put(ctx, collection, key, data, ttl)
}

func (p *OAuthProxy) getJSON(ctx context.Context, collection, key string, v any) error {
	data, err := p.store.Get(ctx, collection, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (p *OAuthProxy) takeJSON(ctx context.Context, collection, key string, v any) error {
	data, err := p.store.Take(ctx, collection, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// upstreamContext makes x/oauth2 use the proxy's HTTP client.
func (p *OAuthProxy) upstreamContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.http)
}

func newSecret() string {
	return rand.Text()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeOAuthError writes an RFC 6749 section 5.2 error body.
func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]string{
		"error":             code,
		"error_description": description,
	})
}
