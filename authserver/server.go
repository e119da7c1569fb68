// Package authserver assembles the HTTP auth service: routes, CORS, request
// logging and graceful shutdown.
package authserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	authgin "github.com/PaulFidika/recipekit/adapters/gin"
	"github.com/PaulFidika/recipekit/adapters/gin/handlers"
	"github.com/PaulFidika/recipekit/adapters/ginutil"
	core "github.com/PaulFidika/recipekit/core"
	jwtkit "github.com/PaulFidika/recipekit/jwt"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// DefaultCORSOrigins are the local frontend dev servers.
var DefaultCORSOrigins = []string{"http://localhost:3000", "http://localhost:3001", "http://localhost:3002"}

type Options struct {
	Addr        string
	CORSOrigins []string
	Limiter     ginutil.RateLimiter
	Logger      logrus.FieldLogger
}

// NewRouter wires the auth routes onto a fresh gin engine.
func NewRouter(svc core.Provider, signer jwtkit.Signer, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = DefaultCORSOrigins
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", handlers.HandleHealthzGET())
	r.POST("/signup", handlers.HandleSignupPOST(svc, opts.Limiter))
	r.POST("/login", handlers.HandleLoginPOST(svc, opts.Limiter))
	r.POST("/refresh", handlers.HandleRefreshPOST(svc, opts.Limiter))
	r.POST("/logout", authgin.AuthOptional(signer), handlers.HandleLogoutPOST(svc, opts.Limiter))
	r.GET("/me", authgin.AuthRequired(signer), handlers.HandleMeGET(svc))
	return r
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := log.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"ip":          c.ClientIP(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if len(c.Errors) > 0 {
			entry.WithError(c.Errors.Last()).Error("request failed")
			return
		}
		entry.Info("request")
	}
}

// Server is the auth HTTP server.
type Server struct {
	httpServer *http.Server
	log        logrus.FieldLogger
}

func New(svc core.Provider, signer jwtkit.Signer, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8081"
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(svc, signer, opts),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		log: log,
	}
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	serveErr := make(chan error, 1)
	s.log.WithField("addr", s.httpServer.Addr).Info("auth service listening")
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
