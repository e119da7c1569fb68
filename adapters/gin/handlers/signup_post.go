package handlers

import (
	"github.com/PaulFidika/recipekit/adapters/ginutil"
	core "github.com/PaulFidika/recipekit/core"
	"github.com/gin-gonic/gin"
)

func HandleSignupPOST(svc core.Provider, rl ginutil.RateLimiter) gin.HandlerFunc {
	type signupReq struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLSignup) {
			ginutil.TooMany(c)
			return
		}
		var req signupReq
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "invalid_request")
			return
		}
		sess, err := svc.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			writeErr(c, err)
			return
		}
		audit(c, svc, sess.User.ID.String(), "signup")
		writeSession(c, sess)
	}
}
