// ABOUTME: Resolvers turning an inbound call into upstream Enapter API credentials
// ABOUTME: HeaderResolver forwards x-enapter-auth-* headers; the OAuth variant lives in userinfo.go

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/enapter/mcp-server/internal/enapter"
)

// Header names read in header mode.
const (
	HeaderAuthToken = "X-Enapter-Auth-Token"
	HeaderAuthUser  = "X-Enapter-Auth-User"
)

// ErrUnauthorized is returned when a call carries no usable credentials.
var ErrUnauthorized = errors.New("unauthorized")

// Resolver produces the upstream credential for the call carried by ctx.
type Resolver interface {
	Resolve(ctx context.Context) (enapter.Credentials, error)
}

// HeaderResolver trusts the x-enapter-auth-token and x-enapter-auth-user
// headers and forwards them verbatim.
type HeaderResolver struct{}

// Resolve fails only when neither header is present.
func (HeaderResolver) Resolve(ctx context.Context) (enapter.Credentials, error) {
	h := HeadersFromContext(ctx)
	creds := enapter.Credentials{
		Token: h.Get(HeaderAuthToken),
		User:  h.Get(HeaderAuthUser),
	}
	if creds.Token == "" && creds.User == "" {
		return enapter.Credentials{}, fmt.Errorf("%w: missing %s or %s header", ErrUnauthorized, HeaderAuthToken, HeaderAuthUser)
	}
	return creds, nil
}
