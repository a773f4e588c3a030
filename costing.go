package larder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/costing"
	"github.com/xraph/larder/id"
	"github.com/xraph/larder/recipe"
)

// ──────────────────────────────────────────────────
// Costing
// ──────────────────────────────────────────────────

// ComputeKPI derives the food-cost metrics of a recipe from current
// ingredient costs. Nothing is cached.
func (l *Larder) ComputeKPI(ctx context.Context, recipeID id.RecipeID) (*costing.KPI, error) {
	r, err := l.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return l.computeKPI(ctx, r)
}

// ComputeFoodCostPercentage returns cost per serving as a percentage of the
// selling price, or zero when the recipe has no price.
func (l *Larder) ComputeFoodCostPercentage(ctx context.Context, recipeID id.RecipeID) (decimal.Decimal, error) {
	kpi, err := l.ComputeKPI(ctx, recipeID)
	if err != nil {
		return decimal.Zero, err
	}
	return kpi.FoodCostPercentage(), nil
}

// ComputeAllKPIs computes the KPI of every recipe, in recipe listing order.
func (l *Larder) ComputeAllKPIs(ctx context.Context) ([]*costing.KPI, error) {
	recipes, err := l.store.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}

	kpis := make([]*costing.KPI, 0, len(recipes))
	for _, r := range recipes {
		kpi, err := l.computeKPI(ctx, r)
		if err != nil {
			return nil, err
		}
		kpis = append(kpis, kpi)
	}
	return kpis, nil
}

func (l *Larder) computeKPI(ctx context.Context, r *recipe.Recipe) (*costing.KPI, error) {
	start := time.Now()

	kpi, err := costing.Compute(r)
	if err != nil {
		return nil, costingError(r, err)
	}

	l.plugins.EmitKPIComputed(ctx, kpi, time.Since(start))
	return kpi, nil
}

// costingError maps costing failures onto the engine's error taxonomy.
func costingError(r *recipe.Recipe, err error) error {
	var unresolved *costing.UnresolvedLineError
	switch {
	case errors.Is(err, costing.ErrNonPositiveServings):
		return fmt.Errorf("%w: recipe %s has %d", ErrInvalidServings, r.ID, r.Servings)
	case errors.As(err, &unresolved):
		return fmt.Errorf("%w: %s (referenced by recipe %s)", ErrIngredientNotFound, unresolved.IngredientID, unresolved.RecipeID)
	default:
		return err
	}
}
