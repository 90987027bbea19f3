// ABOUTME: OAuth-mode credential resolution through the upstream user-info endpoint
// ABOUTME: The caller's guid becomes the upstream user; no token is forwarded

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/enapter/mcp-server/internal/enapter"
)

// Resolve looks up the upstream token behind the call's bearer token and asks
// the user-info endpoint who it belongs to.
func (p *OAuthProxy) Resolve(ctx context.Context) (enapter.Credentials, error) {
	bearer, errMsg := extractBearerToken(HeadersFromContext(ctx).Get("Authorization"))
	if errMsg != "" {
		return enapter.Credentials{}, fmt.Errorf("%w: %s", ErrUnauthorized, errMsg)
	}

	upstreamToken, err := p.UpstreamAccessToken(ctx, bearer)
	if err != nil {
		return enapter.Credentials{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	guid, err := p.fetchUserGUID(ctx, upstreamToken)
	if err != nil {
		return enapter.Credentials{}, err
	}
	return enapter.Credentials{User: guid}, nil
}

func (p *OAuthProxy) fetchUserGUID(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.UserInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("build user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read user info response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &enapter.Error{
			StatusCode: resp.StatusCode,
			Message:    "user info request failed",
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var info struct {
		GUID string `json:"guid"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("decode user info response: %w", err)
	}
	if info.GUID == "" {
		return "", fmt.Errorf("%w: user info response has no guid", ErrUnauthorized)
	}
	return info.GUID, nil
}
