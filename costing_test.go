package larder_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder"
	"github.com/xraph/larder/id"
	"github.com/xraph/larder/recipe"
)

// breadFixture builds the reference recipe: 1 kg at 2.00 and 0.5 kg at 3.00
// over 8 servings.
func breadFixture(t *testing.T, l *larder.Larder, price string) *recipe.Recipe {
	t.Helper()

	flour := mustIngredient(t, l, "Flour", "2.00", "100", nil)
	butter := mustIngredient(t, l, "Butter", "3.00", "100", nil)
	var sp *decimal.Decimal
	if price != "" {
		sp = decPtr(price)
	}
	return mustRecipe(t, l, "Bread", 8, sp, lineOf(flour, "1"), lineOf(butter, "0.5"))
}

func TestComputeKPI(t *testing.T) {
	rec := &recorder{}
	l := newEngine(t, larder.WithPlugin(rec))
	ctx := context.Background()
	r := breadFixture(t, l, "20.00")

	kpi, err := l.ComputeKPI(ctx, r.ID)
	if err != nil {
		t.Fatalf("ComputeKPI failed: %v", err)
	}

	tests := []struct {
		field string
		got   string
		want  string
	}{
		{"TotalCost", kpi.TotalCost.String(), "3.5"},
		{"CostPerServing", kpi.CostPerServing.StringFixed(2), "0.44"},
		{"GrossProfit", kpi.GrossProfit.StringFixed(2), "19.56"},
		{"ProfitMargin", kpi.ProfitMargin.StringFixed(4), "97.8000"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}

	pct, err := l.ComputeFoodCostPercentage(ctx, r.ID)
	if err != nil {
		t.Fatalf("ComputeFoodCostPercentage failed: %v", err)
	}
	if got := pct.StringFixed(4); got != "2.2000" {
		t.Errorf("food cost percentage: got %s, want 2.2000", got)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.kpis) != 2 {
		t.Errorf("OnKPIComputed calls: got %d, want 2", len(rec.kpis))
	}
}

func TestComputeKPIZeroPrice(t *testing.T) {
	for _, price := range []string{"", "0"} {
		t.Run("price="+price, func(t *testing.T) {
			l := newEngine(t)
			r := breadFixture(t, l, price)

			kpi, err := l.ComputeKPI(context.Background(), r.ID)
			if err != nil {
				t.Fatalf("ComputeKPI failed: %v", err)
			}
			if !kpi.ProfitMargin.IsZero() || !kpi.FoodCostPercentage().IsZero() {
				t.Errorf("expected zero percentages, got margin %s and food cost %s", kpi.ProfitMargin, kpi.FoodCostPercentage())
			}
		})
	}
}

func TestComputeKPIReflectsCurrentCosts(t *testing.T) {
	l := newEngine(t)
	ctx := context.Background()
	r := breadFixture(t, l, "20.00")

	first, err := l.ComputeKPI(ctx, r.ID)
	if err != nil {
		t.Fatalf("ComputeKPI failed: %v", err)
	}
	again, err := l.ComputeKPI(ctx, r.ID)
	if err != nil {
		t.Fatalf("ComputeKPI failed: %v", err)
	}
	if !first.TotalCost.Equal(again.TotalCost) || !first.ProfitMargin.Equal(again.ProfitMargin) {
		t.Errorf("repeated reads differ: %+v vs %+v", first, again)
	}

	flour := r.Lines[0].Ingredient
	if _, err := l.UpdateIngredient(ctx, flour.ID, larder.IngredientUpdate{Name: flour.Name, Unit: flour.Unit, UnitCost: dec("4.00")}); err != nil {
		t.Fatalf("UpdateIngredient failed: %v", err)
	}

	after, err := l.ComputeKPI(ctx, r.ID)
	if err != nil {
		t.Fatalf("ComputeKPI failed: %v", err)
	}
	if !after.TotalCost.Equal(dec("5.5")) || !after.CostPerServing.Equal(dec("0.69")) {
		t.Errorf("KPI did not follow cost change: total %s per serving %s", after.TotalCost, after.CostPerServing)
	}
}

func TestComputeKPIErrors(t *testing.T) {
	l := newEngine(t)
	ctx := context.Background()

	if _, err := l.ComputeKPI(ctx, id.NewRecipeID()); !errors.Is(err, larder.ErrRecipeNotFound) {
		t.Errorf("unknown recipe: got %v", err)
	}

	r := breadFixture(t, l, "20.00")
	if err := l.DeleteIngredient(ctx, r.Lines[1].IngredientID); err != nil {
		t.Fatalf("DeleteIngredient failed: %v", err)
	}
	if _, err := l.ComputeKPI(ctx, r.ID); !errors.Is(err, larder.ErrIngredientNotFound) {
		t.Errorf("deleted ingredient: got %v", err)
	}
}

func TestComputeAllKPIs(t *testing.T) {
	l := newEngine(t)
	ctx := context.Background()
	bread := breadFixture(t, l, "20.00")
	flour := bread.Lines[0].Ingredient

	mustRecipe(t, l, "Roux", 3, decPtr("1.00"), lineOf(flour, "0.5"))

	kpis, err := l.ComputeAllKPIs(ctx)
	if err != nil {
		t.Fatalf("ComputeAllKPIs failed: %v", err)
	}
	if len(kpis) != 2 || kpis[0].RecipeName != "Bread" || kpis[1].RecipeName != "Roux" {
		t.Fatalf("unexpected KPIs: %+v", kpis)
	}
	// 0.5 * 2.00 / 3 = 0.3333 -> 0.33; (1.00 - 0.33) / 1.00 = 67%
	if !kpis[1].CostPerServing.Equal(dec("0.33")) || !kpis[1].ProfitMargin.Equal(dec("67")) {
		t.Errorf("Roux KPI: %+v", kpis[1])
	}
}
