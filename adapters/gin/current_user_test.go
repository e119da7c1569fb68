package authgin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	authtest "github.com/PaulFidika/recipekit/testing"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(issuer *authtest.TestIssuer, required bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	mw := AuthOptional(issuer.Signer())
	if required {
		mw = AuthRequired(issuer.Signer())
	}
	r.GET("/whoami", mw, func(c *gin.Context) {
		u, ok := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"ok": ok, "user": u})
	})
	return r
}

func get(r http.Handler, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	r := newEngine(issuer, true)

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+issuer.CreateExpiredToken("u-1", "a@b.c")).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Basic dXNlcjpwYXNz").Code)

	w := get(r, "bearer "+issuer.CreateToken("u-1", "a@b.c"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"user":{"user_id":"u-1","email":"a@b.c","roles":["user"],"source":"claims"}}`, w.Body.String())
}

func TestAuthOptional(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	r := newEngine(issuer, false)

	w := get(r, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":false,"user":{"user_id":"","email":"","source":"none"}}`, w.Body.String())

	w = get(r, "Bearer "+issuer.CreateToken("u-2", "b@c.d"))
	assert.Contains(t, w.Body.String(), `"user_id":"u-2"`)
}
