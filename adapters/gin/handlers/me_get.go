package handlers

import (
	"errors"
	"net/http"

	authgin "github.com/PaulFidika/recipekit/adapters/gin"
	"github.com/PaulFidika/recipekit/adapters/ginutil"
	core "github.com/PaulFidika/recipekit/core"
	"github.com/PaulFidika/recipekit/identity"
	"github.com/gin-gonic/gin"
)

// HandleMeGET must run behind authgin.AuthRequired.
func HandleMeGET(svc core.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, ok := authgin.CurrentUser(c)
		if !ok {
			ginutil.Unauthorized(c, "unauthorized")
			return
		}
		u, err := svc.Me(c.Request.Context(), view.UserID)
		if errors.Is(err, identity.ErrNotFound) {
			ginutil.NotFound(c, "user_not_found")
			return
		}
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user_id": u.ID.String(),
			"email":   u.Email,
			"name":    u.Name,
			"roles":   view.Roles,
		})
	}
}

func HandleHealthzGET() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
