// Package recipes exposes the recipe catalogue queries and mutations as typed
// calls over a GraphQL client.
package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PaulFidika/recipekit/graphql"
	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("recipes: not found")
	ErrInvalidRating = errors.New("recipes: rating must be between 1 and 5")
	ErrEmptyComment  = errors.New("recipes: comment is empty")
	ErrMissingTitle  = errors.New("recipes: title is required")
)

const (
	MinRating = 1
	MaxRating = 5
)

// Executor is the subset of *graphql.Client the catalogue needs.
type Executor interface {
	Query(ctx context.Context, doc string, vars map[string]any, out any, opts ...graphql.QueryOption) error
	Mutate(ctx context.Context, doc string, vars map[string]any, out any) error
}

type Client struct {
	gql Executor
}

func New(gql Executor) *Client {
	return &Client{gql: gql}
}

// Filter narrows ListRecipes. Zero values leave a dimension unfiltered.
type Filter struct {
	CategoryID *uuid.UUID
	UserID     *uuid.UUID
	Search     string
}

// Page bounds a listing. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) vars(into map[string]any) {
	if p.Limit > 0 {
		into["limit"] = p.Limit
	}
	if p.Offset > 0 {
		into["offset"] = p.Offset
	}
}

// SearchPattern wraps term for a case-insensitive substring match.
func SearchPattern(term string) string {
	return "%" + strings.TrimSpace(term) + "%"
}

// ListRecipes returns recipes newest first. The search pattern is always sent
// so an empty term matches every title.
func (c *Client) ListRecipes(ctx context.Context, f Filter, p Page) ([]Recipe, error) {
	vars := map[string]any{"search": SearchPattern(f.Search)}
	if f.CategoryID != nil {
		vars["categoryId"] = f.CategoryID.String()
	}
	if f.UserID != nil {
		vars["userId"] = f.UserID.String()
	}
	p.vars(vars)
	var out struct {
		Recipes []Recipe `json:"recipes"`
	}
	if err := c.gql.Query(ctx, listRecipesDoc, vars, &out); err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return out.Recipes, nil
}

// ListRecipesSimple is the unfiltered listing.
func (c *Client) ListRecipesSimple(ctx context.Context, p Page) ([]Recipe, error) {
	vars := map[string]any{}
	p.vars(vars)
	var out struct {
		Recipes []Recipe `json:"recipes"`
	}
	if err := c.gql.Query(ctx, listRecipesSimpleDoc, vars, &out); err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return out.Recipes, nil
}

// GetRecipe loads one recipe with its ingredients, steps, images and comments.
func (c *Client) GetRecipe(ctx context.Context, id uuid.UUID) (*Recipe, error) {
	var out struct {
		Recipe *Recipe `json:"recipes_by_pk"`
	}
	if err := c.gql.Query(ctx, getRecipeDoc, map[string]any{"id": id.String()}, &out); err != nil {
		return nil, fmt.Errorf("get recipe %s: %w", id, err)
	}
	if out.Recipe == nil {
		return nil, ErrNotFound
	}
	return out.Recipe, nil
}

// ListCategories is served from the response cache when possible.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out struct {
		Categories []Category `json:"categories"`
	}
	if err := c.gql.Query(ctx, listCategoriesDoc, nil, &out, graphql.WithFetchPolicy(graphql.CacheFirst)); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out.Categories, nil
}

func (c *Client) ListRecipesByUser(ctx context.Context, userID uuid.UUID) ([]Recipe, error) {
	var out struct {
		Recipes []Recipe `json:"recipes"`
	}
	if err := c.gql.Query(ctx, listRecipesByUserDoc, map[string]any{"userId": userID.String()}, &out); err != nil {
		return nil, fmt.Errorf("list recipes by user: %w", err)
	}
	return out.Recipes, nil
}

func pairVars(recipeID, userID uuid.UUID) map[string]any {
	return map[string]any{"recipeId": recipeID.String(), "userId": userID.String()}
}

type idRow struct {
	ID uuid.UUID `json:"id"`
}

func (c *Client) IsLiked(ctx context.Context, recipeID, userID uuid.UUID) (bool, error) {
	var out struct {
		Rows []idRow `json:"recipe_likes"`
	}
	if err := c.gql.Query(ctx, checkLikeDoc, pairVars(recipeID, userID), &out); err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return len(out.Rows) > 0, nil
}

func (c *Client) IsBookmarked(ctx context.Context, recipeID, userID uuid.UUID) (bool, error) {
	var out struct {
		Rows []idRow `json:"recipe_bookmarks"`
	}
	if err := c.gql.Query(ctx, checkBookmarkDoc, pairVars(recipeID, userID), &out); err != nil {
		return false, fmt.Errorf("check bookmark: %w", err)
	}
	return len(out.Rows) > 0, nil
}

// UserRating reports the user's rating of a recipe; ok is false when the user
// has not rated it.
func (c *Client) UserRating(ctx context.Context, recipeID, userID uuid.UUID) (rating int, ok bool, err error) {
	var out struct {
		Rows []struct {
			ID     uuid.UUID `json:"id"`
			Rating int       `json:"rating"`
		} `json:"recipe_ratings"`
	}
	if err := c.gql.Query(ctx, userRatingDoc, pairVars(recipeID, userID), &out); err != nil {
		return 0, false, fmt.Errorf("get rating: %w", err)
	}
	if len(out.Rows) == 0 {
		return 0, false, nil
	}
	return out.Rows[0].Rating, true, nil
}

func (c *Client) CreateRecipe(ctx context.Context, r NewRecipe) (RecipeRef, error) {
	if strings.TrimSpace(r.Title) == "" {
		return RecipeRef{}, ErrMissingTitle
	}
	var out struct {
		Recipe *RecipeRef `json:"insert_recipes_one"`
	}
	if err := c.gql.Mutate(ctx, createRecipeDoc, map[string]any{"recipe": r}, &out); err != nil {
		return RecipeRef{}, fmt.Errorf("create recipe: %w", err)
	}
	if out.Recipe == nil {
		return RecipeRef{}, errors.New("create recipe: no row returned")
	}
	return *out.Recipe, nil
}

func (c *Client) UpdateRecipe(ctx context.Context, id uuid.UUID, changes RecipeChanges) (RecipeRef, error) {
	var out struct {
		Recipe *RecipeRef `json:"update_recipes_by_pk"`
	}
	vars := map[string]any{"id": id.String(), "recipe": changes}
	if err := c.gql.Mutate(ctx, updateRecipeDoc, vars, &out); err != nil {
		return RecipeRef{}, fmt.Errorf("update recipe %s: %w", id, err)
	}
	if out.Recipe == nil {
		return RecipeRef{}, ErrNotFound
	}
	return *out.Recipe, nil
}

func (c *Client) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	var out struct {
		Recipe *idRow `json:"delete_recipes_by_pk"`
	}
	if err := c.gql.Mutate(ctx, deleteRecipeDoc, map[string]any{"id": id.String()}, &out); err != nil {
		return fmt.Errorf("delete recipe %s: %w", id, err)
	}
	if out.Recipe == nil {
		return ErrNotFound
	}
	return nil
}

// Like is idempotent. created is false when the like already existed.
func (c *Client) Like(ctx context.Context, recipeID, userID uuid.UUID) (created bool, err error) {
	var out struct {
		Row *idRow `json:"insert_recipe_likes_one"`
	}
	if err := c.gql.Mutate(ctx, likeDoc, pairVars(recipeID, userID), &out); err != nil {
		return false, fmt.Errorf("like: %w", err)
	}
	return out.Row != nil, nil
}

// Unlike returns how many likes were removed (0 or 1).
func (c *Client) Unlike(ctx context.Context, recipeID, userID uuid.UUID) (int, error) {
	var out struct {
		Res affected `json:"delete_recipe_likes"`
	}
	if err := c.gql.Mutate(ctx, unlikeDoc, pairVars(recipeID, userID), &out); err != nil {
		return 0, fmt.Errorf("unlike: %w", err)
	}
	return out.Res.Rows, nil
}

// Bookmark is idempotent. created is false when the bookmark already existed.
func (c *Client) Bookmark(ctx context.Context, recipeID, userID uuid.UUID) (created bool, err error) {
	var out struct {
		Row *idRow `json:"insert_recipe_bookmarks_one"`
	}
	if err := c.gql.Mutate(ctx, bookmarkDoc, pairVars(recipeID, userID), &out); err != nil {
		return false, fmt.Errorf("bookmark: %w", err)
	}
	return out.Row != nil, nil
}

func (c *Client) Unbookmark(ctx context.Context, recipeID, userID uuid.UUID) (int, error) {
	var out struct {
		Res affected `json:"delete_recipe_bookmarks"`
	}
	if err := c.gql.Mutate(ctx, unbookmarkDoc, pairVars(recipeID, userID), &out); err != nil {
		return 0, fmt.Errorf("unbookmark: %w", err)
	}
	return out.Res.Rows, nil
}

type affected struct {
	Rows int `json:"affected_rows"`
}

func (c *Client) AddComment(ctx context.Context, recipeID, userID uuid.UUID, content string) (Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Comment{}, ErrEmptyComment
	}
	vars := pairVars(recipeID, userID)
	vars["content"] = content
	var out struct {
		Comment *Comment `json:"insert_recipe_comments_one"`
	}
	if err := c.gql.Mutate(ctx, addCommentDoc, vars, &out); err != nil {
		return Comment{}, fmt.Errorf("add comment: %w", err)
	}
	if out.Comment == nil {
		return Comment{}, errors.New("add comment: no row returned")
	}
	return *out.Comment, nil
}

// Rate sets the user's rating, replacing any earlier one.
func (c *Client) Rate(ctx context.Context, recipeID, userID uuid.UUID, rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	vars := pairVars(recipeID, userID)
	vars["rating"] = rating
	if err := c.gql.Mutate(ctx, rateDoc, vars, nil); err != nil {
		return fmt.Errorf("rate: %w", err)
	}
	return nil
}
