package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/PaulFidika/recipekit/recipes"
	"github.com/fatih/color"
)

type printer struct {
	w      io.Writer
	json   bool
	colors bool
}

// newPrinter colors output only when writing to a terminal stdout and
// NO_COLOR is unset.
func newPrinter(w io.Writer, asJSON bool) *printer {
	_, noColor := os.LookupEnv("NO_COLOR")
	return &printer{w: w, json: asJSON, colors: w == os.Stdout && !noColor && !color.NoColor}
}

func (p *printer) JSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Success prints a confirmation line, green on a terminal.
func (p *printer) Success(format string, args ...any) {
	if p.colors {
		fmt.Fprintln(p.w, color.New(color.FgGreen).Sprintf(format, args...))
		return
	}
	p.Line(format, args...)
}

func (p *printer) dim(s string) string {
	if p.colors {
		return color.New(color.Faint).Sprint(s)
	}
	return s
}

func (p *printer) Recipes(list []recipes.Recipe) error {
	if p.json {
		return p.JSON(list)
	}
	if len(list) == 0 {
		p.Line("no recipes")
		return nil
	}
	t := newTableWithWriter(p.w, []string{"id", "title", "category", "author", "likes", "rating"})
	for _, r := range list {
		t.AddRow(r.ID.String(), r.Title, categoryName(r.Category), authorName(r.User), strconv.Itoa(r.TotalLikes), rating(r.AverageRating))
	}
	return t.Render()
}

func (p *printer) Recipe(r *recipes.Recipe) error {
	if p.json {
		return p.JSON(r)
	}
	p.Line("%s  %s", r.Title, p.dim("("+r.ID.String()+")"))
	if r.Description != nil {
		p.Line("%s", *r.Description)
	}
	p.Line("category: %s  author: %s  rating: %s  likes: %d", categoryName(r.Category), authorName(r.User), rating(r.AverageRating), r.TotalLikes)
	if len(r.Ingredients) > 0 {
		p.Line("\nIngredients:")
		for _, in := range r.Ingredients {
			unit := ""
			if in.Unit != nil {
				unit = " " + *in.Unit
			}
			p.Line("  - %s%s %s", in.Quantity, unit, in.Name)
		}
	}
	if len(r.Steps) > 0 {
		p.Line("\nSteps:")
		for _, s := range r.Steps {
			p.Line("  %d. %s", s.StepNumber, s.Instruction)
		}
	}
	if len(r.Comments) > 0 {
		p.Line("\nComments:")
		for _, c := range r.Comments {
			p.Line("  %s: %s", authorName(c.User), strings.TrimSpace(c.Content))
		}
	}
	return nil
}

func (p *printer) Categories(list []recipes.Category) error {
	if p.json {
		return p.JSON(list)
	}
	t := newTableWithWriter(p.w, []string{"id", "name"})
	for _, c := range list {
		t.AddRow(c.ID.String(), c.Name)
	}
	return t.Render()
}

func categoryName(c *recipes.Category) string {
	if c == nil {
		return "-"
	}
	return c.Name
}

func authorName(u *recipes.User) string {
	if u == nil || u.Name == "" {
		return "-"
	}
	return u.Name
}

func rating(avg *float64) string {
	if avg == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *avg)
}
