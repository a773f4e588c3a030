// Package costing derives food-cost metrics from a recipe's BOM.
//
// Everything here is a pure function of the recipe value it is given; the
// caller supplies lines with resolved ingredients. Results are never cached.
package costing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/recipe"
	"github.com/xraph/larder/types"
)

// ErrNonPositiveServings is returned for a recipe with servings <= 0.
var ErrNonPositiveServings = errors.New("costing: servings must be positive")

// UnresolvedLineError reports a BOM line whose ingredient could not be
// resolved, typically because it was deleted.
type UnresolvedLineError struct {
	RecipeID     id.RecipeID
	IngredientID id.IngredientID
}

func (e *UnresolvedLineError) Error() string {
	return fmt.Sprintf("costing: recipe %s references missing ingredient %s", e.RecipeID, e.IngredientID)
}

// KPI holds the derived cost metrics of one recipe.
type KPI struct {
	RecipeID       id.RecipeID     `json:"recipe_id"`
	RecipeName     string          `json:"recipe_name"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	CostPerServing decimal.Decimal `json:"cost_per_serving"`
	SellingPrice   decimal.Decimal `json:"selling_price"`
	GrossProfit    decimal.Decimal `json:"gross_profit"`
	ProfitMargin   decimal.Decimal `json:"profit_margin"`
	Servings       int             `json:"servings"`
}

// FoodCostPercentage is cost per serving as a percentage of the selling
// price, zero when there is no price.
func (k KPI) FoodCostPercentage() decimal.Decimal {
	return types.Percent(k.CostPerServing, k.SellingPrice)
}

// TotalCost sums quantity times unit cost over all lines without rounding.
// Duplicate lines for one ingredient are each counted.
func TotalCost(r *recipe.Recipe) (decimal.Decimal, error) {
	costs := make([]decimal.Decimal, 0, len(r.Lines))
	for _, l := range r.Lines {
		if l.Ingredient == nil {
			return decimal.Zero, &UnresolvedLineError{RecipeID: r.ID, IngredientID: l.IngredientID}
		}
		costs = append(costs, l.Quantity.Mul(l.Ingredient.UnitCost))
	}
	return types.Sum(costs...), nil
}

// Compute derives the KPI of r.
//
// Cost per serving is rounded to 2 places; gross profit may be negative;
// margin is zero when the selling price is zero.
func Compute(r *recipe.Recipe) (*KPI, error) {
	if r.Servings <= 0 {
		return nil, ErrNonPositiveServings
	}

	total, err := TotalCost(r)
	if err != nil {
		return nil, err
	}

	costPerServing := types.DivideMoney(total, decimal.NewFromInt(int64(r.Servings)))
	price := r.Price()
	gross := price.Sub(costPerServing)

	return &KPI{
		RecipeID:       r.ID,
		RecipeName:     r.Name,
		TotalCost:      total,
		CostPerServing: costPerServing,
		SellingPrice:   price,
		GrossProfit:    gross,
		ProfitMargin:   types.Percent(gross, price),
		Servings:       r.Servings,
	}, nil
}
