// Package auth resolves the upstream Enapter API credentials of each MCP call.
//
// # Resolvers
//
// A Resolver is selected once at startup:
//
//   - HeaderResolver: forwards the x-enapter-auth-token and
//     x-enapter-auth-user request headers verbatim. Trust is delegated to
//     whatever sits in front of the server.
//
//   - OAuthProxy: the server acts as an OAuth authorization server for MCP
//     clients and proxies the actual login to an upstream identity provider.
//     The caller's user-info guid becomes the upstream user.
//
// Tool handlers never branch on the mode; they call Resolve with the context
// carrying the inbound headers (see WithHeaders).
//
// # OAuth Proxy Endpoints
//
//	GET  /.well-known/oauth-protected-resource    RFC 9728 metadata
//	GET  /.well-known/oauth-authorization-server  RFC 8414 metadata
//	POST /register                                RFC 7591 client registration
//	GET  /authorize                               starts the upstream login
//	GET  /auth/callback                           upstream redirect target
//	POST /token                                   authorization_code and refresh_token grants
//
// # Tokens
//
// Access and refresh tokens handed to clients are HS256 JWTs signed with a
// key derived from oauth_proxy.jwt_signing_key:
//
//	issuer, err := NewTokenIssuer(secret, baseURL, resourceURL)
//	token, expiresAt, err := issuer.IssueAccess(id, clientID, scopes, ttl)
//	claims, err := issuer.VerifyAccess(token)
//
// The token ID (jti) keys the upstream grant in the kvstore. RequireBearer
// verifies the JWT locally and then introspects the upstream access token,
// rejecting inactive tokens and tokens missing a required scope.
package auth
