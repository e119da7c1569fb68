package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	jwtkit "github.com/PaulFidika/recipekit/jwt"
	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	// NamespacedClaimsKey is the payload key of the Hasura claims object.
	NamespacedClaimsKey = jwtkit.HasuraNamespace
	// NamespacedUserIDKey overrides the subject as the user id when present.
	NamespacedUserIDKey = jwtkit.HasuraUserIDKey
)

var (
	// ErrMalformedToken reports a token without a payload segment.
	ErrMalformedToken = errors.New("session: malformed token")
	// ErrInvalidPayload reports a payload segment that is not base64 encoded JSON object.
	ErrInvalidPayload = errors.New("session: invalid token payload")
)

// Identity is the display identity derived from a token payload plus caller-supplied fields.
// It is advisory only: signatures are never checked.
type Identity struct {
	ID     string         `json:"id"`
	Email  string         `json:"email"`
	Name   string         `json:"name"`
	Claims map[string]any `json:"claims,omitempty"`
}

// Claim returns a pass-through payload claim.
func (i Identity) Claim(key string) (any, bool) {
	v, ok := i.Claims[key]
	return v, ok
}

func (i Identity) clone() Identity {
	out := i
	if i.Claims != nil {
		out.Claims = make(map[string]any, len(i.Claims))
		for k, v := range i.Claims {
			out.Claims[k] = v
		}
	}
	return out
}

// overlay applies supplied fields on top of i. Non-empty supplied fields win;
// an empty supplied field means "not supplied", so it cannot blank a decoded
// value.
func (i Identity) overlay(supplied Identity) Identity {
	out := i.clone()
	if supplied.ID != "" {
		out.ID = supplied.ID
	}
	if supplied.Email != "" {
		out.Email = supplied.Email
	}
	if supplied.Name != "" {
		out.Name = supplied.Name
	}
	if len(supplied.Claims) > 0 {
		if out.Claims == nil {
			out.Claims = make(map[string]any, len(supplied.Claims))
		}
		for k, v := range supplied.Claims {
			out.Claims[k] = v
		}
	}
	return out
}

// Claims is a decoded, unverified token payload.
type Claims = jwt.MapClaims

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode returns the payload of a dot-delimited token without verifying it.
// Only the second segment is looked at, so a two-segment token decodes too.
// The segment may be base64url or standard base64, with or without padding.
func Decode(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil, ErrMalformedToken
	}
	raw, err := decodeSegment(parts[1])
	if err != nil {
		return nil, ErrInvalidPayload
	}
	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil || claims == nil {
		return nil, ErrInvalidPayload
	}
	return claims, nil
}

func decodeSegment(seg string) ([]byte, error) {
	if b, err := segmentParser.DecodeSegment(seg); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(seg, "="))
}

// IdentityFromClaims resolves the login-time identity: the namespaced user id
// wins over sub, email falls back to sub, and string id/name claims override.
func IdentityFromClaims(claims Claims) Identity {
	sub := stringClaim(claims, "sub")
	id := sub
	if ns, ok := claims[NamespacedClaimsKey].(map[string]any); ok {
		if v := stringClaim(ns, NamespacedUserIDKey); v != "" {
			id = v
		}
	}
	ident := Identity{ID: id, Email: sub, Claims: copyClaims(claims)}
	applyPayloadFields(&ident, claims)
	return ident
}

// rehydratedIdentity is the boot-time rule: email defaults to sub and the
// namespaced user id is not consulted.
func rehydratedIdentity(claims Claims) Identity {
	ident := Identity{Email: stringClaim(claims, "sub"), Claims: copyClaims(claims)}
	applyPayloadFields(&ident, claims)
	return ident
}

func applyPayloadFields(ident *Identity, claims Claims) {
	if v, ok := claims["id"].(string); ok {
		ident.ID = v
	}
	if v, ok := claims["email"].(string); ok {
		ident.Email = v
	}
	if v, ok := claims["name"].(string); ok {
		ident.Name = v
	}
}

func stringClaim(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func copyClaims(claims Claims) map[string]any {
	out := make(map[string]any, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out
}
