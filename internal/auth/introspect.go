// ABOUTME: RFC 7662 token introspection against the upstream identity provider
// ABOUTME: Authenticates with the proxy's client credentials and checks required scopes

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// Introspection is the subset of an RFC 7662 response the proxy uses.
type Introspection struct {
	Active   bool   `json:"active"`
	Scope    string `json:"scope"`
	ClientID string `json:"client_id"`
	Subject  string `json:"sub"`
	Expiry   int64  `json:"exp"`
}

// Introspector validates upstream access tokens.
type Introspector struct {
	endpoint       string
	clientID       string
	clientSecret   string
	requiredScopes []string
	http           *http.Client
}

// NewIntrospector builds an introspector for endpoint. httpClient may be nil.
func NewIntrospector(endpoint, clientID, clientSecret string, requiredScopes []string, httpClient *http.Client) *Introspector {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Introspector{
		endpoint:       endpoint,
		clientID:       clientID,
		clientSecret:   clientSecret,
		requiredScopes: requiredScopes,
		http:           httpClient,
	}
}

// Verify introspects token and fails with ErrInvalidToken when it is
// inactive or lacks a required scope.
func (i *Introspector) Verify(ctx context.Context, token string) (*Introspection, error) {
	form := url.Values{"token": {token}, "token_type_hint": {"access_token"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(url.QueryEscape(i.clientID), url.QueryEscape(i.clientSecret))

	resp, err := i.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("introspection request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read introspection response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("introspection failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result Introspection
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode introspection response: %w", err)
	}

	if !result.Active {
		return nil, fmt.Errorf("%w: token is not active", ErrInvalidToken)
	}
	if result.Expiry > 0 && time.Unix(result.Expiry, 0).Before(time.Now()) {
		return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}

	granted := strings.Fields(result.Scope)
	for _, scope := range i.requiredScopes {
		if !slices.Contains(granted, scope) {
			return nil, fmt.Errorf("%w: missing required scope %q", ErrInvalidToken, scope)
		}
	}
	return &result, nil
}
