// Package recipe defines recipes and the bill-of-materials lines they own.
package recipe

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/types"
)

// Recipe is the aggregate root of a BOM. Lines have no lifecycle outside
// their recipe and are removed with it.
type Recipe struct {
	types.Entity
	ID           id.RecipeID      `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Servings     int              `json:"servings"`
	Instructions string           `json:"instructions,omitempty"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
	Lines        []Line           `json:"lines"`
}

// Line is one BOM entry: a quantity of an ingredient per recipe batch.
type Line struct {
	ID           id.RecipeLineID `json:"id"`
	RecipeID     id.RecipeID     `json:"recipe_id"`
	IngredientID id.IngredientID `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`

	// Ingredient is resolved on read. It is nil when the referenced
	// ingredient has since been deleted.
	Ingredient *ingredient.Ingredient `json:"ingredient,omitempty"`
}

// Price returns the selling price, or zero when none is set.
func (r *Recipe) Price() decimal.Decimal {
	if r.SellingPrice == nil {
		return decimal.Zero
	}
	return *r.SellingPrice
}
