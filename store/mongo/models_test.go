package mongo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/recipe"
)

func TestDecimal128(t *testing.T) {
	for _, s := range []string{"0", "2.50", "0.001", "-12.345", "123456789.123"} {
		t.Run(s, func(t *testing.T) {
			d := decimal.RequireFromString(s)
			v, err := toDecimal128(d)
			if err != nil {
				t.Fatal(err)
			}
			back, err := fromDecimal128(v)
			if err != nil {
				t.Fatal(err)
			}
			if !back.Equal(d) {
				t.Errorf("got %s, want %s", back, d)
			}
		})
	}

	if v, err := toOptionalDecimal128(nil); v != nil || err != nil {
		t.Errorf("nil decimal encoded as %v, %v", v, err)
	}
	if d, err := fromOptionalDecimal128(nil); d != nil || err != nil {
		t.Errorf("absent value decoded as %v, %v", d, err)
	}
}

func TestMovementModelRoundTrip(t *testing.T) {
	in := &movement.Movement{
		ID:            id.NewMovementID(),
		IngredientID:  id.NewIngredientID(),
		Kind:          movement.KindWaste,
		Quantity:      decimal.RequireFromString("0.250"),
		PreviousStock: decimal.RequireFromString("1"),
		NewStock:      decimal.RequireFromString("0.750"),
		Reason:        "dropped tray",
		PerformedBy:   "kitchen",
		CreatedAt:     time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}

	m, err := toMovementModel(in)
	if err != nil {
		t.Fatal(err)
	}
	if m.RecipeID != "" {
		t.Errorf("nil recipe stored as %q", m.RecipeID)
	}
	out, err := fromMovementModel(m)
	if err != nil {
		t.Fatal(err)
	}
	if out.ID != in.ID || out.Kind != in.Kind || !out.Quantity.Equal(in.Quantity) ||
		!out.NewStock.Equal(in.NewStock) || !out.RecipeID.IsNil() {
		t.Errorf("round trip: got %+v", out)
	}
}

func TestRecipeModelEmbedsLines(t *testing.T) {
	price := decimal.RequireFromString("9.90")
	r := &recipe.Recipe{
		ID:           id.NewRecipeID(),
		Name:         "Risotto",
		Servings:     2,
		SellingPrice: &price,
	}
	r.Lines = []recipe.Line{
		{ID: id.NewRecipeLineID(), RecipeID: r.ID, IngredientID: id.NewIngredientID(), Quantity: decimal.RequireFromString("0.3")},
		{ID: id.NewRecipeLineID(), RecipeID: r.ID, IngredientID: id.NewIngredientID(), Quantity: decimal.RequireFromString("0.05")},
	}

	m, err := toRecipeModel(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Lines) != 2 {
		t.Fatalf("embedded lines = %d, want 2", len(m.Lines))
	}

	out, err := fromRecipeModel(m)
	if err != nil {
		t.Fatal(err)
	}
	if out.SellingPrice == nil || !out.SellingPrice.Equal(price) {
		t.Errorf("selling price = %v", out.SellingPrice)
	}
	for i, line := range out.Lines {
		if line.RecipeID != r.ID || line.ID != r.Lines[i].ID || !line.Quantity.Equal(r.Lines[i].Quantity) {
			t.Errorf("line %d: got %+v", i, line)
		}
	}
}

func TestMigrationIndexes(t *testing.T) {
	indexes := migrationIndexes()
	for _, col := range []string{colIngredients, colMovements, colRecipes} {
		if len(indexes[col]) == 0 {
			t.Errorf("no indexes for %s", col)
		}
	}

	unique := indexes[colIngredients][0]
	if unique.Options == nil {
		t.Fatal("ingredient name index has no options")
	}
}
