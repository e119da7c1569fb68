package handlers

import (
	"net/http"

	authgin "github.com/PaulFidika/recipekit/adapters/gin"
	"github.com/PaulFidika/recipekit/adapters/ginutil"
	core "github.com/PaulFidika/recipekit/core"
	"github.com/gin-gonic/gin"
)

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

func HandleRefreshPOST(svc core.Provider, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLRefresh) {
			ginutil.TooMany(c)
			return
		}
		var req refreshReq
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "invalid_request")
			return
		}
		tok, err := svc.Refresh(c.Request.Context(), req.RefreshToken)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"access_token": tok})
	}
}

// HandleLogoutPOST revokes the posted refresh token. Unknown tokens still
// answer ok. Callers that also present a valid bearer token (see
// authgin.AuthOptional) get the logout audited against their user.
func HandleLogoutPOST(svc core.Provider, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLLogout) {
			ginutil.TooMany(c)
			return
		}
		var req refreshReq
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "invalid_request")
			return
		}
		if err := svc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
			writeErr(c, err)
			return
		}
		if u, ok := authgin.CurrentUser(c); ok {
			audit(c, svc, u.UserID, "logout")
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
