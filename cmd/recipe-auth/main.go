// Command recipe-auth serves signup, login and token refresh for the recipe API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/PaulFidika/recipekit/authserver"
	"github.com/PaulFidika/recipekit/config"
	core "github.com/PaulFidika/recipekit/core"
	"github.com/PaulFidika/recipekit/identity"
	jwtkit "github.com/PaulFidika/recipekit/jwt"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logrus.WithError(err).Fatal("load .env")
	}
	cfg, err := config.LoadServer()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := config.Logger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := identity.OpenPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	defer pool.Close()

	signer, err := jwtkit.NewHS256Signer([]byte(cfg.JWTSecret))
	if err != nil {
		log.WithError(err).Fatal("jwt signer")
	}

	svc := core.NewService(identity.NewStore(pool, cfg.DatabaseSchema), signer, core.Config{
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}, log).WithEvents(core.LogrusEvents{Log: log})

	limiter, closeLimiter := authserver.NewLimiter(ctx, cfg.RedisURL, log)
	defer closeLimiter()

	srv := authserver.New(svc, signer, authserver.Options{
		Addr:        cfg.Addr(),
		CORSOrigins: cfg.CORSOrigins,
		Limiter:     limiter,
		Logger:      log,
	})
	if err := srv.ListenAndServe(ctx); err != nil {
		log.WithError(err).Error("auth service stopped")
		return
	}
	log.Info("auth service stopped")
}
