// Package ginutil holds the small response and rate-limit helpers shared by
// the gin handlers.
package ginutil

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Rate-limit bucket names.
const (
	RLSignup  = "auth_signup"
	RLLogin   = "auth_login"
	RLRefresh = "auth_refresh"
	RLLogout  = "auth_logout"
)

// RateLimiter is satisfied by the memory and redis limiters.
type RateLimiter interface {
	AllowNamed(bucket, key string) (bool, error)
}

// Limit is a per-bucket allowance.
type Limit struct {
	Limit  int
	Window time.Duration
}

// DefaultLimits are the per-IP allowances for the public auth routes.
func DefaultLimits() map[string]Limit {
	return map[string]Limit{
		RLSignup:  {Limit: 5, Window: time.Hour},
		RLLogin:   {Limit: 10, Window: 15 * time.Minute},
		RLRefresh: {Limit: 60, Window: time.Hour},
		RLLogout:  {Limit: 30, Window: time.Hour},
		"default": {Limit: 100, Window: time.Minute},
	}
}

// AllowNamed checks the caller's IP against bucket. Limiter errors fail open.
func AllowNamed(c *gin.Context, rl RateLimiter, bucket string) bool {
	if rl == nil {
		return true
	}
	ok, err := rl.AllowNamed(bucket, c.ClientIP())
	if err != nil {
		logrus.WithError(err).WithField("bucket", bucket).Warn("rate limiter unavailable")
		return true
	}
	return ok
}

func abort(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code})
}

func BadRequest(c *gin.Context, code string)   { abort(c, http.StatusBadRequest, code) }
func Unauthorized(c *gin.Context, code string) { abort(c, http.StatusUnauthorized, code) }
func NotFound(c *gin.Context, code string)     { abort(c, http.StatusNotFound, code) }
func ServerErr(c *gin.Context, code string)    { abort(c, http.StatusInternalServerError, code) }
func TooMany(c *gin.Context)                   { abort(c, http.StatusTooManyRequests, "rate_limited") }
