// ABOUTME: Authorization-code flow of the OAuth proxy: authorize, upstream callback, token
// ABOUTME: Upstream grants are stored under the IDs of the locally issued JWTs

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/enapter/mcp-server/internal/kvstore"
)

// transaction tracks one authorization request while the user is at the
// upstream provider. It is keyed by the state sent upstream.
type transaction struct {
	ClientID      string   `json:"client_id"`
	RedirectURI   string   `json:"redirect_uri"`
	State         string   `json:"state"`
	CodeChallenge string   `json:"code_challenge"`
	Scopes        []string `json:"scopes"`
	// Verifier is the proxy's own PKCE verifier when forwarding PKCE upstream.
	Verifier string `json:"verifier,omitempty"`
}

// upstreamToken is the token set returned by the upstream provider.
type upstreamToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

func newUpstreamToken(t *oauth2.Token) upstreamToken {
	return upstreamToken{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

// authorizationCode is the one-time code handed to the client.
type authorizationCode struct {
	ClientID      string        `json:"client_id"`
	RedirectURI   string        `json:"redirect_uri"`
	CodeChallenge string        `json:"code_challenge"`
	Scopes        []string      `json:"scopes"`
	Upstream      upstreamToken `json:"upstream"`
}

// grant binds an issued token ID to its upstream token.
type grant struct {
	ClientID string        `json:"client_id"`
	Scopes   []string      `json:"scopes"`
	Upstream upstreamToken `json:"upstream"`
}

func (p *OAuthProxy) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	c, err := p.lookupClient(r, q.Get("client_id"))
	if err != nil {
		http.Error(w, "unknown client_id", http.StatusBadRequest)
		return
	}

	redirectURI := q.Get("redirect_uri")
	if redirectURI == "" && len(c.RedirectURIs) == 1 {
		redirectURI = c.RedirectURIs[0]
	}
	if !slices.Contains(c.RedirectURIs, redirectURI) || !redirectAllowed(p.cfg.AllowedRedirectURLs, redirectURI) {
		http.Error(w, "redirect_uri is not registered for this client", http.StatusBadRequest)
		return
	}

	state := q.Get("state")
	if q.Get("response_type") != "code" {
		redirectWithError(w, r, redirectURI, state, "unsupported_response_type", "only the code response_type is supported")
		return
	}
	challenge := q.Get("code_challenge")
	if challenge == "" {
		redirectWithError(w, r, redirectURI, state, "invalid_request", "code_challenge is required")
		return
	}
	if method := q.Get("code_challenge_method"); method != "S256" {
		redirectWithError(w, r, redirectURI, state, "invalid_request", "code_challenge_method must be S256")
		return
	}

	scopes := strings.Fields(q.Get("scope"))
	if len(scopes) == 0 {
		scopes = p.cfg.RequiredScopes
	}

	txn := transaction{
		ClientID:      c.ClientID,
		RedirectURI:   redirectURI,
		State:         state,
		CodeChallenge: challenge,
		Scopes:        scopes,
	}

	upstream := *p.upstream
	upstream.Scopes = scopes

	var opts []oauth2.AuthCodeOption
	if p.cfg.ForwardPKCE {
		txn.Verifier = oauth2.GenerateVerifier()
		opts = append(opts, oauth2.S256ChallengeOption(txn.Verifier))
	}

	txnID := newSecret()
	if err := p.putJSON(r.Context(), collectionTransactions, txnID, txn, transactionTTL); err != nil {
		p.logger.Error("failed to store transaction", "error", err)
		redirectWithError(w, r, redirectURI, state, "server_error", "failed to start authorization")
		return
	}

	http.Redirect(w, r, upstream.AuthCodeURL(txnID, opts...), http.StatusFound)
}

func (p *OAuthProxy) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var txn transaction
	if err := p.takeJSON(r.Context(), collectionTransactions, q.Get("state"), &txn); err != nil {
		http.Error(w, "unknown or expired authorization request", http.StatusBadRequest)
		return
	}

	if upstreamErr := q.Get("error"); upstreamErr != "" {
		redirectWithError(w, r, txn.RedirectURI, txn.State, upstreamErr, q.Get("error_description"))
		return
	}

	var opts []oauth2.AuthCodeOption
	if txn.Verifier != "" {
		opts = append(opts, oauth2.VerifierOption(txn.Verifier))
	}
	token, err := p.upstream.Exchange(p.upstreamContext(r.Context()), q.Get("code"), opts...)
	if err != nil {
		p.logger.Warn("upstream code exchange failed", "client_id", txn.ClientID, "error", err)
		redirectWithError(w, r, txn.RedirectURI, txn.State, "access_denied", "upstream authorization failed")
		return
	}

	code := newSecret()
	ac := authorizationCode{
		ClientID:      txn.ClientID,
		RedirectURI:   txn.RedirectURI,
		CodeChallenge: txn.CodeChallenge,
		Scopes:        txn.Scopes,
		Upstream:      newUpstreamToken(token),
	}
	if err := p.putJSON(r.Context(), collectionCodes, code, ac, codeTTL); err != nil {
		p.logger.Error("failed to store authorization code", "error", err)
		redirectWithError(w, r, txn.RedirectURI, txn.State, "server_error", "failed to complete authorization")
		return
	}

	params := url.Values{"code": {code}}
	if txn.State != "" {
		params.Set("state", txn.State)
	}
	http.Redirect(w, r, withQuery(txn.RedirectURI, params), http.StatusFound)
}

func (p *OAuthProxy) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	c, err := p.authenticateClient(r)
	if err != nil {
		writeOAuthError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
		return
	}

	grantType := r.PostFormValue("grant_type")
	if !slices.Contains(c.GrantTypes, grantType) {
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "grant_type not allowed for this client: "+grantType)
		return
	}

	switch grantType {
	case "authorization_code":
		p.exchangeAuthorizationCode(w, r, c)
	case "refresh_token":
		p.exchangeRefreshToken(w, r, c)
	default:
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "unsupported grant_type: "+grantType)
	}
}

func (p *OAuthProxy) exchangeAuthorizationCode(w http.ResponseWriter, r *http.Request, c *client) {
	var ac authorizationCode
	if err := p.takeJSON(r.Context(), collectionCodes, r.PostFormValue("code"), &ac); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "authorization code is invalid or expired")
		return
	}
	if ac.ClientID != c.ClientID {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "authorization code was issued to another client")
		return
	}
	if uri := r.PostFormValue("redirect_uri"); uri != "" && uri != ac.RedirectURI {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "redirect_uri does not match the authorization request")
		return
	}
	if !verifyPKCE(r.PostFormValue("code_verifier"), ac.CodeChallenge) {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "code_verifier does not match code_challenge")
		return
	}

	p.issueTokens(w, r, grant{ClientID: c.ClientID, Scopes: ac.Scopes, Upstream: ac.Upstream})
}

func (p *OAuthProxy) exchangeRefreshToken(w http.ResponseWriter, r *http.Request, c *client) {
	claims, err := p.issuer.VerifyRefresh(r.PostFormValue("refresh_token"))
	if err != nil || claims.ClientID != c.ClientID {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "refresh token is invalid")
		return
	}

	// The grant stays in place until the new tokens are stored, so a failed
	// upstream refresh leaves the client's refresh token usable.
	var g grant
	if err := p.getJSON(r.Context(), collectionGrants, claims.ID, &g); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "refresh token was revoked or already used")
		return
	}

	source := p.upstream.TokenSource(p.upstreamContext(r.Context()), &oauth2.Token{RefreshToken: g.Upstream.RefreshToken})
	token, err := source.Token()
	if err != nil {
		p.logger.Warn("upstream token refresh failed", "client_id", c.ClientID, "error", err)
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "upstream refresh failed")
		return
	}

	previous := g.Upstream.RefreshToken
	g.Upstream = newUpstreamToken(token)
	if g.Upstream.RefreshToken == "" {
		g.Upstream.RefreshToken = previous
	}
	if !p.issueTokens(w, r, g) {
		return
	}
	if err := p.store.Delete(r.Context(), collectionGrants, claims.ID); err != nil {
		p.logger.Warn("failed to revoke used refresh grant", "client_id", c.ClientID, "error", err)
	}
}

// issueTokens signs an access token, plus a refresh token when the upstream
// grant can be refreshed, and records both under their token IDs. It reports
// whether the tokens were issued; on failure an error response is written.
func (p *OAuthProxy) issueTokens(w http.ResponseWriter, r *http.Request, g grant) bool {
	ttl := defaultAccessTTL
	if !g.Upstream.Expiry.IsZero() {
		if d := g.Upstream.Expiry.Sub(p.now()); d > 0 {
			ttl = d
		}
	}

	accessID := uuid.NewString()
	access, _, err := p.issuer.IssueAccess(accessID, g.ClientID, g.Scopes, ttl)
	if err != nil {
		p.logger.Error("failed to sign access token", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, "server_error", "failed to issue token")
		return false
	}
	if err := p.putJSON(r.Context(), collectionGrants, accessID, g, ttl); err != nil {
		p.logger.Error("failed to store grant", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, "server_error", "failed to issue token")
		return false
	}

	resp := map[string]any{
		"access_token": access,
		"token_type":   "Bearer",
		"expires_in":   int64(ttl / time.Second),
	}
	if len(g.Scopes) > 0 {
		resp["scope"] = strings.Join(g.Scopes, " ")
	}

	if g.Upstream.RefreshToken != "" {
		refreshID := uuid.NewString()
		refresh, _, err := p.issuer.IssueRefresh(refreshID, g.ClientID, g.Scopes, refreshTTL)
		if err != nil {
			p.logger.Error("failed to sign refresh token", "error", err)
			writeOAuthError(w, http.StatusInternalServerError, "server_error", "failed to issue token")
			return false
		}
		if err := p.putJSON(r.Context(), collectionGrants, refreshID, g, refreshTTL); err != nil {
			p.logger.Error("failed to store refresh grant", "error", err)
			writeOAuthError(w, http.StatusInternalServerError, "server_error", "failed to issue token")
			return false
		}
		resp["refresh_token"] = refresh
	}

	p.logger.Info("issued tokens", "client_id", g.ClientID, "expires_in", ttl)
	writeJSON(w, http.StatusOK, resp)
	return true
}

// UpstreamAccessToken verifies a proxy-issued access token and returns the
// upstream access token it stands for.
func (p *OAuthProxy) UpstreamAccessToken(ctx context.Context, bearer string) (string, error) {
	claims, err := p.issuer.VerifyAccess(bearer)
	if err != nil {
		return "", err
	}

	var g grant
	if err := p.getJSON(ctx, collectionGrants, claims.ID, &g); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	return g.Upstream.AccessToken, nil
}

func redirectWithError(w http.ResponseWriter, r *http.Request, redirectURI, state, code, description string) {
	params := url.Values{"error": {code}}
	if description != "" {
		params.Set("error_description", description)
	}
	if state != "" {
		params.Set("state", state)
	}
	http.Redirect(w, r, withQuery(redirectURI, params), http.StatusFound)
}

func withQuery(rawURL string, params url.Values) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for k, vs := range params {
		q[k] = vs
	}
	u.RawQuery = q.Encode()
	return u.String()
}
