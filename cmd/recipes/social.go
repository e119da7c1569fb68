package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// recipeAction runs fn for the signed-in user against the recipe in args[0].
func recipeAction(a *app, fn func(ctx context.Context, recipeID, userID uuid.UUID) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		recipeID, err := parseRecipeID(args[0])
		if err != nil {
			return err
		}
		uid, err := a.userID()
		if err != nil {
			return err
		}
		return a.withRefresh(cmd.Context(), func(ctx context.Context) error {
			return fn(ctx, recipeID, uid)
		})
	}
}

func newLikeCmd(a *app, out func() *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "like <recipe-id>",
		Short: "Like a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: recipeAction(a, func(ctx context.Context, rid, uid uuid.UUID) error {
			created, err := a.recipes.Like(ctx, rid, uid)
			if err != nil {
				return err
			}
			out().toggled("liked", created)
			return nil
		}),
	}
}

func newUnlikeCmd(a *app, out func() *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "unlike <recipe-id>",
		Short: "Remove your like",
		Args:  cobra.ExactArgs(1),
		RunE: recipeAction(a, func(ctx context.Context, rid, uid uuid.UUID) error {
			n, err := a.recipes.Unlike(ctx, rid, uid)
			if err != nil {
				return err
			}
			out().toggled("unliked", n > 0)
			return nil
		}),
	}
}

func newBookmarkCmd(a *app, out func() *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "bookmark <recipe-id>",
		Short: "Bookmark a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: recipeAction(a, func(ctx context.Context, rid, uid uuid.UUID) error {
			created, err := a.recipes.Bookmark(ctx, rid, uid)
			if err != nil {
				return err
			}
			out().toggled("bookmarked", created)
			return nil
		}),
	}
}

func newUnbookmarkCmd(a *app, out func() *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "unbookmark <recipe-id>",
		Short: "Remove a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: recipeAction(a, func(ctx context.Context, rid, uid uuid.UUID) error {
			n, err := a.recipes.Unbookmark(ctx, rid, uid)
			if err != nil {
				return err
			}
			out().toggled("unbookmarked", n > 0)
			return nil
		}),
	}
}

func newRateCmd(a *app, out func() *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <recipe-id> <1-5>",
		Short: "Rate a recipe",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stars, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("rating must be a number: %q", args[1])
			}
			return recipeAction(a, func(ctx context.Context, rid, uid uuid.UUID) error {
				if err := a.recipes.Rate(ctx, rid, uid, stars); err != nil {
					return err
				}
				out().Success("rated %d", stars)
				return nil
			})(cmd, args)
		},
	}
}

func newCommentCmd(a *app, out func() *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <recipe-id> <text...>",
		Short: "Comment on a recipe",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return recipeAction(a, func(ctx context.Context, rid, uid uuid.UUID) error {
				c, err := a.recipes.AddComment(ctx, rid, uid, text)
				if err != nil {
					return err
				}
				p := out()
				if p.json {
					return p.JSON(c)
				}
				p.Success("comment %s posted", c.ID)
				return nil
			})(cmd, args)
		},
	}
}

func (p *printer) toggled(verb string, changed bool) {
	if p.json {
		_ = p.JSON(map[string]any{verb: changed})
		return
	}
	if changed {
		p.Success("%s", verb)
		return
	}
	p.Line("nothing to do (already %s)", verb)
}
