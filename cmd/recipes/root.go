package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/PaulFidika/recipekit/authclient"
	"github.com/PaulFidika/recipekit/config"
	"github.com/PaulFidika/recipekit/graphql"
	"github.com/PaulFidika/recipekit/recipes"
	"github.com/PaulFidika/recipekit/session"
	"github.com/PaulFidika/recipekit/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("not logged in; run `recipes login` first")

// codeInvalidJWT is the extension code the API answers with once the access
// token has expired or been rejected.
const codeInvalidJWT = "invalid-jwt"

// app holds the clients shared by every subcommand.
type app struct {
	cfg     config.Client
	log     *logrus.Logger
	sess    *session.Cache
	store   session.Store
	closer  io.Closer
	recipes *recipes.Client
	auth    *authclient.Client
}

type rootFlags struct {
	envFile string
	verbose bool
	json    bool
}

func newRootCmd() *cobra.Command {
	var (
		flags rootFlags
		a     = &app{}
	)
	root := &cobra.Command{
		Use:   "recipes",
		Short: "Browse and manage recipes from the terminal",
		Long: `recipes talks to the recipe GraphQL API and the auth service.

Example usage:
  recipes signup --name Selam --email selam@example.com
  recipes login --email selam@example.com
  recipes recipes list --search injera
  recipes like 0d6a2b35-3d1c-4b7e-8e1f-5c3b2a1d0e9f
  recipes rate 0d6a2b35-3d1c-4b7e-8e1f-5c3b2a1d0e9f 5`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context(), flags)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file merged into the environment")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&flags.json, "json", false, "print results as JSON")

	out := func() *printer { return newPrinter(root.OutOrStdout(), flags.json) }
	root.AddCommand(
		newSignupCmd(a, out),
		newLoginCmd(a, out),
		newLogoutCmd(a, out),
		newWhoamiCmd(a, out),
		newRecipesCmd(a, out),
		newCategoriesCmd(a, out),
		newLikeCmd(a, out),
		newUnlikeCmd(a, out),
		newBookmarkCmd(a, out),
		newUnbookmarkCmd(a, out),
		newRateCmd(a, out),
		newCommentCmd(a, out),
	)
	return root
}

func (a *app) init(ctx context.Context, flags rootFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := config.LoadDotEnv(flags.envFile); err != nil {
		return err
	}
	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg
	level := cfg.LogLevel
	if flags.verbose {
		level = "debug"
	}
	a.log = config.Logger(level)

	store, closer, err := storage.Open(ctx, storage.Options{
		Backend:  cfg.Storage,
		Path:     cfg.StoragePath,
		RedisURL: cfg.RedisURL,
		TTL:      cfg.SessionTTL,
		Logger:   a.log,
	})
	if err != nil {
		return fmt.Errorf("opening session storage: %w", err)
	}
	a.store, a.closer = store, closer

	a.sess = session.New(store, session.WithLogger(a.log), session.WithRehydratedIDResolution())
	if err := a.sess.Init(ctx); err != nil {
		a.log.WithError(err).Debug("session: nothing to restore")
	}

	gql, err := graphql.NewClient(graphql.Config{
		Endpoint:    cfg.GraphQLEndpoint,
		AdminSecret: cfg.AdminSecret,
		Tokens:      a.sess,
		Logger:      a.log,
	})
	if err != nil {
		return err
	}
	a.recipes = recipes.New(gql)

	a.auth, err = authclient.New(authclient.Config{
		BaseURL: cfg.AuthURL,
		Session: a.sess,
		Store:   store,
		Logger:  a.log,
	})
	return err
}

// userID is the signed-in user's id from the session identity.
func (a *app) userID() (uuid.UUID, error) {
	ident, ok := a.sess.Identity()
	if !ok || ident.ID == "" {
		return uuid.Nil, errNotLoggedIn
	}
	id, err := uuid.Parse(ident.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("session user id %q: %w", ident.ID, err)
	}
	return id, nil
}

// withRefresh runs fn and, if the API rejected the access token, refreshes it
// once with the stored refresh token and runs fn again.
func (a *app) withRefresh(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if !graphql.IsCode(err, codeInvalidJWT) {
		return err
	}
	if _, rerr := a.auth.Refresh(ctx, ""); rerr != nil {
		a.log.WithError(rerr).Debug("session: token refresh failed")
		return err
	}
	a.log.Debug("session: access token refreshed, retrying")
	return fn(ctx)
}

func parseRecipeID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid recipe id %q", arg)
	}
	return id, nil
}
