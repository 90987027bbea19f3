// ABOUTME: HTTP middleware protecting the MCP endpoint with proxy-issued bearer tokens
// ABOUTME: Verifies the local JWT, then introspects the upstream token it maps to

package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization header format"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// RequireBearer rejects requests without a valid proxy token. Rejections are
// 401 responses whose WWW-Authenticate header points at the protected
// resource metadata, so MCP clients can discover the authorization server.
func (p *OAuthProxy) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
		if errMsg != "" {
			p.challenge(w, "", errMsg)
			return
		}

		upstreamToken, err := p.UpstreamAccessToken(r.Context(), token)
		if err != nil {
			p.logger.Debug("rejected bearer token", "error", err)
			p.challenge(w, "invalid_token", "token is invalid or expired")
			return
		}

		if _, err := p.introspector.Verify(r.Context(), upstreamToken); err != nil {
			p.logger.Debug("upstream token introspection failed", "error", err)
			p.challenge(w, "invalid_token", "token was rejected by the authorization server")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (p *OAuthProxy) challenge(w http.ResponseWriter, code, description string) {
	value := fmt.Sprintf(`Bearer resource_metadata=%q`, p.ResourceMetadataURL())
	if code != "" {
		value += fmt.Sprintf(`, error=%q, error_description=%q`, code, description)
	}
	w.Header().Set("WWW-Authenticate", value)

	// RFC 6750 omits the error code when no credentials were sent.
	if code == "" {
		code = "invalid_request"
	}
	writeOAuthError(w, http.StatusUnauthorized, code, description)
}
