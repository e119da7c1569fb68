package jwtkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	// HasuraNamespace is the claim key holding the Hasura session variables.
	HasuraNamespace = "https://hasura.io/jwt/claims"
	// HasuraUserIDKey is the user id session variable inside HasuraNamespace.
	HasuraUserIDKey       = "x-hasura-user-id"
	HasuraDefaultRoleKey  = "x-hasura-default-role"
	HasuraAllowedRolesKey = "x-hasura-allowed-roles"

	// DefaultRole is the only role the auth service hands out.
	DefaultRole = "user"

	// MinSecretLen is the shortest HS256 secret Hasura accepts.
	MinSecretLen = 32
)

var ErrSecretTooShort = fmt.Errorf("jwtkit: secret must be at least %d bytes", MinSecretLen)

// Signer issues and verifies access tokens.
type Signer interface {
	// Algorithm returns the JWS algorithm (e.g., HS256).
	Algorithm() string
	// Sign creates a signed JWT with provided claims.
	Sign(ctx context.Context, claims jwt.MapClaims) (token string, err error)
	// Verify checks the signature and expiry and returns the claims.
	Verify(ctx context.Context, token string) (jwt.MapClaims, error)
}

// HS256Signer signs with a shared secret, the mode Hasura is configured with.
type HS256Signer struct {
	secret []byte
}

func NewHS256Signer(secret []byte) (*HS256Signer, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrSecretTooShort
	}
	b := make([]byte, len(secret))
	copy(b, secret)
	return &HS256Signer{secret: b}, nil
}

func (s *HS256Signer) Algorithm() string { return jwt.SigningMethodHS256.Alg() }

func (s *HS256Signer) Sign(_ context.Context, claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *HS256Signer) Verify(_ context.Context, token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{s.Algorithm()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// BaseRegisteredClaims makes the sub/iat/exp triple.
func BaseRegisteredClaims(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// AccessClaims builds the claims of an access token for userID.
func AccessClaims(userID, email string, now time.Time, ttl time.Duration) jwt.MapClaims {
	base := BaseRegisteredClaims(userID, now, ttl)
	claims := jwt.MapClaims{
		"sub": base.Subject,
		"iat": base.IssuedAt.Unix(),
		"exp": base.ExpiresAt.Unix(),
		HasuraNamespace: map[string]any{
			HasuraDefaultRoleKey:  DefaultRole,
			HasuraAllowedRolesKey: []string{DefaultRole},
			HasuraUserIDKey:       userID,
		},
	}
	if email != "" {
		claims["email"] = email
	}
	return claims
}

// Issue signs an access token for userID.
func Issue(ctx context.Context, s Signer, userID, email string, ttl time.Duration) (string, error) {
	if s == nil {
		return "", errors.New("jwtkit: missing signer")
	}
	return s.Sign(ctx, AccessClaims(userID, email, time.Now(), ttl))
}

// UserID returns the Hasura user id session variable, falling back to sub.
func UserID(claims jwt.MapClaims) string {
	if ns, ok := claims[HasuraNamespace].(map[string]any); ok {
		if id, ok := ns[HasuraUserIDKey].(string); ok && id != "" {
			return id
		}
	}
	sub, _ := claims.GetSubject()
	return sub
}
