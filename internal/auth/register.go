// ABOUTME: RFC 7591 dynamic client registration for the OAuth proxy
// ABOUTME: Redirect URIs are checked against the configured allowlist before a client is stored

package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/enapter/mcp-server/internal/kvstore"
)

// Token endpoint authentication methods.
const (
	authMethodNone  = "none"
	authMethodPost  = "client_secret_post"
	authMethodBasic = "client_secret_basic"
)

var supportedAuthMethods = []string{authMethodNone, authMethodPost, authMethodBasic}

var supportedGrantTypes = []string{"authorization_code", "refresh_token"}

// client is a registered OAuth client as persisted in the store.
type client struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret,omitempty"`
	ClientName              string   `json:"client_name,omitempty"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	Scope                   string   `json:"scope,omitempty"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at"`
}

type registrationRequest struct {
	RedirectURIs            []string `json:"redirect_uris"`
	ClientName              string   `json:"client_name"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	Scope                   string   `json:"scope"`
}

func (p *OAuthProxy) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_client_metadata", "request body must be a JSON object")
		return
	}

	if len(req.RedirectURIs) == 0 {
		writeOAuthError(w, http.StatusBadRequest, "invalid_redirect_uri", "at least one redirect_uri is required")
		return
	}
	for _, uri := range req.RedirectURIs {
		if u, err := url.Parse(uri); err != nil || u.Scheme == "" || u.Fragment != "" {
			writeOAuthError(w, http.StatusBadRequest, "invalid_redirect_uri", "redirect_uri must be an absolute URL without fragment: "+uri)
			return
		}
		if !redirectAllowed(p.cfg.AllowedRedirectURLs, uri) {
			p.logger.Warn("rejected client registration", "redirect_uri", uri)
			writeOAuthError(w, http.StatusBadRequest, "invalid_redirect_uri", "redirect_uri is not allowed: "+uri)
			return
		}
	}

	method := req.TokenEndpointAuthMethod
	if method == "" {
		method = authMethodBasic
	}
	if !slices.Contains(supportedAuthMethods, method) {
		writeOAuthError(w, http.StatusBadRequest, "invalid_client_metadata", "unsupported token_endpoint_auth_method: "+method)
		return
	}

	grantTypes := req.GrantTypes
	if len(grantTypes) == 0 {
		grantTypes = supportedGrantTypes
	}
	for _, gt := range grantTypes {
		if !slices.Contains(supportedGrantTypes, gt) {
			writeOAuthError(w, http.StatusBadRequest, "invalid_client_metadata", "unsupported grant_type: "+gt)
			return
		}
	}

	responseTypes := req.ResponseTypes
	if len(responseTypes) == 0 {
		responseTypes = []string{"code"}
	}
	if !slices.Equal(responseTypes, []string{"code"}) {
		writeOAuthError(w, http.StatusBadRequest, "invalid_client_metadata", "only the code response_type is supported")
		return
	}

	c := client{
		ClientID:                uuid.NewString(),
		ClientName:              req.ClientName,
		RedirectURIs:            req.RedirectURIs,
		GrantTypes:              grantTypes,
		ResponseTypes:           responseTypes,
		TokenEndpointAuthMethod: method,
		Scope:                   req.Scope,
		ClientIDIssuedAt:        p.now().Unix(),
	}
	if method != authMethodNone {
		c.ClientSecret = newSecret()
	}

	if err := p.putJSON(r.Context(), collectionClients, c.ClientID, c, 0); err != nil {
		p.logger.Error("failed to store client", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, "server_error", "failed to register client")
		return
	}

	p.logger.Info("registered client", "client_id", c.ClientID, "client_name", c.ClientName)

	resp := map[string]any{
		"client_id":                  c.ClientID,
		"client_id_issued_at":        c.ClientIDIssuedAt,
		"client_name":                c.ClientName,
		"redirect_uris":              c.RedirectURIs,
		"grant_types":                c.GrantTypes,
		"response_types":             c.ResponseTypes,
		"token_endpoint_auth_method": c.TokenEndpointAuthMethod,
	}
	if c.Scope != "" {
		resp["scope"] = c.Scope
	}
	if c.ClientSecret != "" {
		resp["client_secret"] = c.ClientSecret
		resp["client_secret_expires_at"] = 0
	}
	writeJSON(w, http.StatusCreated, resp)
}

// lookupClient loads a registered client, reporting kvstore.ErrNotFound for
// unknown ids.
func (p *OAuthProxy) lookupClient(r *http.Request, clientID string) (*client, error) {
	if clientID == "" {
		return nil, kvstore.ErrNotFound
	}
	var c client
	if err := p.getJSON(r.Context(), collectionClients, clientID, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// authenticateClient resolves the client of a token request from basic auth
// or form fields and checks its secret.
func (p *OAuthProxy) authenticateClient(r *http.Request) (*client, error) {
	clientID, secret, hasBasic := r.BasicAuth()
	if hasBasic {
		clientID, _ = url.QueryUnescape(clientID)
		secret, _ = url.QueryUnescape(secret)
	} else {
		clientID = r.PostFormValue("client_id")
		secret = r.PostFormValue("client_secret")
	}

	c, err := p.lookupClient(r, clientID)
	if err != nil {
		return nil, err
	}
	if c.ClientSecret != "" && subtle.ConstantTimeCompare([]byte(c.ClientSecret), []byte(secret)) != 1 {
		return nil, errors.New("client secret mismatch")
	}
	return c, nil
}

// redirectAllowed matches uri against glob patterns where * matches any run
// of characters. An empty allowlist allows everything.
func redirectAllowed(patterns []string, uri string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if globToRegexp(pattern).MatchString(uri) {
			return true
		}
	}
	return false
}

func globToRegexp(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}

// verifyPKCE checks an RFC 7636 S256 code verifier against its challenge.
func verifyPKCE(verifier, challenge string) bool {
	if verifier == "" || challenge == "" {
		return false
	}
	sum := sha256.Sum256([]byte(verifier))
	computed := base64.RawURLEncoding.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}
