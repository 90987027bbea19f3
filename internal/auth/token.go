// ABOUTME: Locally issued HS256 JWTs for OAuth proxy clients
// ABOUTME: The signing key is derived from the configured secret with HKDF-SHA256

package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// Token errors
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSignKey = errors.New("jwt signing key is required")
)

// Token use values carried in the "use" claim.
const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

const hkdfInfo = "enapter-mcp-server jwt signing key"

// Claims are the claims of tokens issued by the proxy. The token ID maps to
// the upstream grant held in the store.
type Claims struct {
	jwt.RegisteredClaims
	ClientID string `json:"client_id"`
	Scope    string `json:"scope,omitempty"`
	Use      string `json:"use"`
}

// TokenIssuer signs and verifies proxy tokens.
type TokenIssuer struct {
	key      []byte
	issuer   string
	audience string
	now      func() time.Time
}

// DeriveSigningKey stretches secret into a 32-byte HMAC key.
func DeriveSigningKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrMissingSignKey
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("deriving signing key: %w", err)
	}
	return key, nil
}

// NewTokenIssuer creates an issuer for tokens with the given iss and aud.
func NewTokenIssuer(secret, issuer, audience string) (*TokenIssuer, error) {
	key, err := DeriveSigningKey(secret)
	if err != nil {
		return nil, err
	}
	return &TokenIssuer{key: key, issuer: issuer, audience: audience, now: time.Now}, nil
}

func (i *TokenIssuer) issue(use, id, clientID string, scopes []string, ttl time.Duration) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    i.issuer,
			Subject:   clientID,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		ClientID: clientID,
		Scope:    strings.Join(scopes, " "),
		Use:      use,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// IssueAccess signs an access token.
func (i *TokenIssuer) IssueAccess(id, clientID string, scopes []string, ttl time.Duration) (string, time.Time, error) {
	return i.issue(tokenUseAccess, id, clientID, scopes, ttl)
}

// IssueRefresh signs a refresh token.
func (i *TokenIssuer) IssueRefresh(id, clientID string, scopes []string, ttl time.Duration) (string, time.Time, error) {
	return i.issue(tokenUseRefresh, id, clientID, scopes, ttl)
}

// VerifyAccess validates an access token and returns its claims.
func (i *TokenIssuer) VerifyAccess(token string) (*Claims, error) {
	return i.verify(token, tokenUseAccess)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (i *TokenIssuer) VerifyRefresh(token string) (*Claims, error) {
	return i.verify(token, tokenUseRefresh)
}

func (i *TokenIssuer) verify(tokenString, use string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti claim", ErrInvalidToken)
	}
	if claims.Use != use {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, use)
	}
	return &claims, nil
}
