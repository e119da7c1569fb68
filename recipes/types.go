package recipes

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug,omitempty"`
	Description *string   `json:"description,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
}

// User is the author or commenter view of a user row.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
}

type Recipe struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	FeaturedImage   *string    `json:"featured_image,omitempty"`
	PrepTimeMinutes *int       `json:"prep_time_minutes,omitempty"`
	CookTimeMinutes *int       `json:"cook_time_minutes,omitempty"`
	Servings        *int       `json:"servings,omitempty"`
	Difficulty      *string    `json:"difficulty,omitempty"`
	AverageRating   *float64   `json:"average_rating,omitempty"`
	TotalLikes      int        `json:"total_likes"`
	TotalBookmarks  int        `json:"total_bookmarks"`
	TotalRatings    int        `json:"total_ratings"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
	Category        *Category  `json:"category,omitempty"`
	User            *User      `json:"user,omitempty"`

	// Only populated by GetRecipe.
	Ingredients []Ingredient `json:"ingredients,omitempty"`
	Steps       []Step       `json:"steps,omitempty"`
	Images      []Image      `json:"images,omitempty"`
	Comments    []Comment    `json:"comments,omitempty"`
}

type Ingredient struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Quantity     Quantity  `json:"quantity"`
	Unit         *string   `json:"unit,omitempty"`
	DisplayOrder int       `json:"display_order"`
}

// Quantity accepts both numeric and text columns ("2", 2.5, "a pinch").
type Quantity string

func (q *Quantity) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*q = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*q = Quantity(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*q = Quantity(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

type Step struct {
	ID          uuid.UUID `json:"id"`
	StepNumber  int       `json:"step_number"`
	Instruction string    `json:"instruction"`
	ImageURL    *string   `json:"image_url,omitempty"`
}

type Image struct {
	ID           uuid.UUID `json:"id"`
	ImageURL     string    `json:"image_url"`
	IsFeatured   bool      `json:"is_featured"`
	DisplayOrder int       `json:"display_order"`
}

type Comment struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      *User     `json:"user,omitempty"`
}

// RecipeRef is what create and update return.
type RecipeRef struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// NewRecipe is a recipes_insert_input. Child rows are inserted in the same
// mutation through Hasura's nested {data: [...]} form.
type NewRecipe struct {
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	CategoryID      *uuid.UUID      `json:"category_id,omitempty"`
	UserID          uuid.UUID       `json:"user_id"`
	FeaturedImage   string          `json:"featured_image,omitempty"`
	PrepTimeMinutes int             `json:"prep_time_minutes,omitempty"`
	CookTimeMinutes int             `json:"cook_time_minutes,omitempty"`
	Servings        int             `json:"servings,omitempty"`
	Difficulty      string          `json:"difficulty,omitempty"`
	Ingredients     []NewIngredient `json:"-"`
	Steps           []NewStep       `json:"-"`
	Images          []NewImage      `json:"-"`
}

type NewIngredient struct {
	Name         string `json:"name"`
	Quantity     string `json:"quantity,omitempty"`
	Unit         string `json:"unit,omitempty"`
	DisplayOrder int    `json:"display_order"`
}

type NewStep struct {
	StepNumber  int    `json:"step_number"`
	Instruction string `json:"instruction"`
	ImageURL    string `json:"image_url,omitempty"`
}

type NewImage struct {
	ImageURL     string `json:"image_url"`
	IsFeatured   bool   `json:"is_featured"`
	DisplayOrder int    `json:"display_order"`
}

type nested[T any] struct {
	Data []T `json:"data"`
}

func (r NewRecipe) MarshalJSON() ([]byte, error) {
	type plain NewRecipe
	out := struct {
		plain
		Ingredients *nested[NewIngredient] `json:"ingredients,omitempty"`
		Steps       *nested[NewStep]       `json:"steps,omitempty"`
		Images      *nested[NewImage]      `json:"images,omitempty"`
	}{plain: plain(r)}
	if len(r.Ingredients) > 0 {
		out.Ingredients = &nested[NewIngredient]{Data: r.Ingredients}
	}
	if len(r.Steps) > 0 {
		out.Steps = &nested[NewStep]{Data: r.Steps}
	}
	if len(r.Images) > 0 {
		out.Images = &nested[NewImage]{Data: r.Images}
	}
	return json.Marshal(out)
}

// RecipeChanges is a recipes_set_input; nil fields are left untouched.
type RecipeChanges struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	FeaturedImage   *string    `json:"featured_image,omitempty"`
	PrepTimeMinutes *int       `json:"prep_time_minutes,omitempty"`
	CookTimeMinutes *int       `json:"cook_time_minutes,omitempty"`
	Servings        *int       `json:"servings,omitempty"`
	Difficulty      *string    `json:"difficulty,omitempty"`
}
