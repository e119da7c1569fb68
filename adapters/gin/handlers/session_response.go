package handlers

import (
	"errors"
	"net/http"

	"github.com/PaulFidika/recipekit/adapters/ginutil"
	core "github.com/PaulFidika/recipekit/core"
	pwhash "github.com/PaulFidika/recipekit/password"
	"github.com/gin-gonic/gin"
)

// sessionResp carries the access token under both names older and newer
// clients read.
type sessionResp struct {
	Token        string `json:"token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
}

func writeSession(c *gin.Context, s *core.Session) {
	c.JSON(http.StatusOK, sessionResp{
		Token:        s.AccessToken,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		UserID:       s.User.ID.String(),
		Email:        s.User.Email,
		Name:         s.User.Name,
	})
}

func audit(c *gin.Context, svc core.Provider, userID, method string) {
	ua := c.Request.UserAgent()
	ip := c.ClientIP()
	svc.LogAuth(c.Request.Context(), userID, method, &ip, &ua)
}

// writeErr maps service errors to status codes; anything unknown is a 500.
func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrMissingFields):
		ginutil.BadRequest(c, "missing_fields")
	case errors.Is(err, pwhash.ErrTooShort):
		ginutil.BadRequest(c, "password_too_short")
	case errors.Is(err, core.ErrEmailTaken):
		ginutil.BadRequest(c, "user_exists")
	case errors.Is(err, core.ErrInvalidCredentials):
		ginutil.Unauthorized(c, "invalid_credentials")
	case errors.Is(err, core.ErrInvalidRefreshToken):
		ginutil.Unauthorized(c, "invalid_refresh_token")
	case errors.Is(err, core.ErrRefreshTokenExpired):
		ginutil.Unauthorized(c, "refresh_token_expired")
	default:
		_ = c.Error(err)
		ginutil.ServerErr(c, "internal_error")
	}
}
