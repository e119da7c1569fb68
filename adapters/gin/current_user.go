package authgin

import (
	"strings"

	"github.com/PaulFidika/recipekit/adapters/ginutil"
	jwtkit "github.com/PaulFidika/recipekit/jwt"
	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID = "auth.user_id"
	ctxEmail  = "auth.email"
	ctxClaims = "auth.claims"
)

// Claims is the verified subset of an access token handlers care about.
type Claims struct {
	UserID string
	Email  string
	Roles  []string
	Raw    jwt.MapClaims
}

// UserView is a unified view of the caller.
type UserView struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles,omitempty"`

	// "claims" | "none"
	Source string `json:"source"`
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func claimsFrom(raw jwt.MapClaims) Claims {
	cl := Claims{UserID: jwtkit.UserID(raw), Raw: raw}
	cl.Email, _ = raw["email"].(string)
	if ns, ok := raw[jwtkit.HasuraNamespace].(map[string]any); ok {
		if roles, ok := ns[jwtkit.HasuraAllowedRolesKey].([]any); ok {
			for _, r := range roles {
				if s, ok := r.(string); ok {
					cl.Roles = append(cl.Roles, s)
				}
			}
		}
	}
	return cl
}

func verify(c *gin.Context, signer jwtkit.Signer) bool {
	tok := bearerToken(c)
	if tok == "" {
		return false
	}
	raw, err := signer.Verify(c.Request.Context(), tok)
	if err != nil {
		return false
	}
	cl := claimsFrom(raw)
	if cl.UserID == "" {
		return false
	}
	c.Set(ctxUserID, cl.UserID)
	c.Set(ctxEmail, cl.Email)
	c.Set(ctxClaims, cl)
	return true
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(signer jwtkit.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !verify(c, signer) {
			ginutil.Unauthorized(c, "unauthorized")
			return
		}
		c.Next()
	}
}

// AuthOptional populates the claims when a valid bearer token is present.
func AuthOptional(signer jwtkit.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		verify(c, signer)
		c.Next()
	}
}

// ClaimsFromGin returns the claims set by AuthRequired/AuthOptional.
func ClaimsFromGin(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return Claims{}, false
	}
	cl, ok := v.(Claims)
	return cl, ok
}

// CurrentUser returns a unified user snapshot for handlers.
func CurrentUser(c *gin.Context) (UserView, bool) {
	if cl, ok := ClaimsFromGin(c); ok && cl.UserID != "" {
		return UserView{
			UserID: cl.UserID,
			Email:  cl.Email,
			Roles:  cl.Roles,
			Source: "claims",
		}, true
	}
	return UserView{Source: "none"}, false
}
