package handlers

import (
	"github.com/PaulFidika/recipekit/adapters/ginutil"
	core "github.com/PaulFidika/recipekit/core"
	"github.com/gin-gonic/gin"
)

func HandleLoginPOST(svc core.Provider, rl ginutil.RateLimiter) gin.HandlerFunc {
	type loginReq struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLLogin) {
			ginutil.TooMany(c)
			return
		}
		var req loginReq
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "invalid_request")
			return
		}
		sess, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			writeErr(c, err)
			return
		}
		audit(c, svc, sess.User.ID.String(), "password_login")
		writeSession(c, sess)
	}
}
