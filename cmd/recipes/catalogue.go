package main

import (
	"context"
	"errors"

	"github.com/PaulFidika/recipekit/recipes"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRecipesCmd(a *app, out func() *printer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recipes",
		Aliases: []string{"r"},
		Short:   "List and show recipes",
	}
	cmd.AddCommand(newRecipesListCmd(a, out), newRecipesGetCmd(a, out), newRecipesMineCmd(a, out))
	return cmd
}

func newRecipesListCmd(a *app, out func() *printer) *cobra.Command {
	var (
		search, category, user string
		page                   recipes.Page
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recipes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := recipes.Filter{Search: search}
			var err error
			if f.CategoryID, err = optionalUUID(category); err != nil {
				return errors.New("invalid --category id")
			}
			if f.UserID, err = optionalUUID(user); err != nil {
				return errors.New("invalid --user id")
			}
			var list []recipes.Recipe
			err = a.withRefresh(cmd.Context(), func(ctx context.Context) (err error) {
				list, err = a.recipes.ListRecipes(ctx, f, page)
				return err
			})
			if err != nil {
				return err
			}
			return out().Recipes(list)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive title search")
	cmd.Flags().StringVar(&category, "category", "", "category id")
	cmd.Flags().StringVar(&user, "user", "", "author id")
	cmd.Flags().IntVarP(&page.Limit, "limit", "n", 20, "maximum results")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "results to skip")
	return cmd
}

func newRecipesGetCmd(a *app, out func() *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "get <recipe-id>",
		Short: "Show a recipe with ingredients, steps and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecipeID(args[0])
			if err != nil {
				return err
			}
			var r *recipes.Recipe
			err = a.withRefresh(cmd.Context(), func(ctx context.Context) (err error) {
				r, err = a.recipes.GetRecipe(ctx, id)
				return err
			})
			if err != nil {
				return err
			}
			return out().Recipe(r)
		},
	}
}

func newRecipesMineCmd(a *app, out func() *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List recipes you authored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uid, err := a.userID()
			if err != nil {
				return err
			}
			var list []recipes.Recipe
			err = a.withRefresh(cmd.Context(), func(ctx context.Context) (err error) {
				list, err = a.recipes.ListRecipesByUser(ctx, uid)
				return err
			})
			if err != nil {
				return err
			}
			return out().Recipes(list)
		},
	}
}

func newCategoriesCmd(a *app, out func() *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List recipe categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var list []recipes.Category
			err := a.withRefresh(cmd.Context(), func(ctx context.Context) (err error) {
				list, err = a.recipes.ListCategories(ctx)
				return err
			})
			if err != nil {
				return err
			}
			return out().Categories(list)
		},
	}
}

func optionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
