package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PaulFidika/recipekit/authclient"
	"github.com/spf13/cobra"
)

// passwordEnv lets scripts skip the interactive prompt.
const passwordEnv = "RECIPEKIT_PASSWORD"

func readPassword(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv(passwordEnv); v != "" {
		return v, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newSignupCmd(a *app, out func() *printer) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			res, err := a.auth.Signup(cmd.Context(), name, email, pw)
			if err != nil {
				return err
			}
			return out().session(res)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd(a *app, out func() *printer) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			res, err := a.auth.Login(cmd.Context(), email, pw)
			if authclient.IsUnauthorized(err) {
				return errors.New("invalid email or password")
			}
			if err != nil {
				return err
			}
			return out().session(res)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(a *app, out func() *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.auth.Logout(cmd.Context())
			out().Success("logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app, out func() *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ident, ok := a.sess.Identity()
			if !ok {
				return errNotLoggedIn
			}
			p := out()
			if p.json {
				return p.JSON(ident)
			}
			p.Line("id:    %s", ident.ID)
			p.Line("email: %s", ident.Email)
			if ident.Name != "" {
				p.Line("name:  %s", ident.Name)
			}
			return nil
		},
	}
}

func (p *printer) session(res authclient.Result) error {
	if p.json {
		return p.JSON(map[string]string{"user_id": res.UserID, "email": res.Email, "name": res.Name})
	}
	who := res.Name
	if who == "" {
		who = res.Email
	}
	p.Success("signed in as %s", who)
	return nil
}
