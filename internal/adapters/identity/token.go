// Package identity turns a bearer token into the requester identity used by
// the visibility policy: the token yields an email, the slot store yields
// role and region, and the warehouse yields competition zones.
package identity

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	model "github.com/okian/salesboard/internal/domain/model"
)

// Metadata is the profile embedded in the token by the auth provider.
type Metadata struct {
	Name   string `json:"name"`
	Region string `json:"region"`
	Role   string `json:"role"`
}

// Claims are the token claims read by the resolver.
type Claims struct {
	jwt.RegisteredClaims
	Email        string   `json:"email"`
	UserMetadata Metadata `json:"user_metadata"`
}

// Verifier checks HS256 tokens signed with the auth project secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier returns a verifier for secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// Verify parses and validates token. Every failure wraps model.ErrUnauthorized.
func (v *Verifier) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrUnauthorized, err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("%w: token is not valid", model.ErrUnauthorized)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: %w", model.ErrUnauthorized, ErrMissingEmail)
	}
	return claims, nil
}

// BearerToken extracts the token of an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", model.ErrUnauthorized)
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: invalid authorization header format", model.ErrUnauthorized)
	}
	return strings.TrimSpace(token), nil
}
