package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/recipe"
	"github.com/xraph/larder/types"
)

func TestIngredientModelRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	minimum := decimal.RequireFromString("2.500")
	in := &ingredient.Ingredient{
		Entity:       types.Entity{CreatedAt: now, UpdatedAt: now},
		ID:           id.NewIngredientID(),
		Name:         "Saffron",
		Unit:         "g",
		UnitCost:     decimal.RequireFromString("12.34"),
		CurrentStock: decimal.RequireFromString("0.125"),
		MinimumStock: &minimum,
		Supplier:     "Spice Co",
	}

	m := toIngredientModel(in)
	if m.UnitCost != "12.34" || m.CurrentStock != "0.125" || m.MinimumStock == nil || *m.MinimumStock != "2.5" {
		t.Fatalf("decimal text: %+v", m)
	}

	out, err := fromIngredientModel(m)
	if err != nil {
		t.Fatal(err)
	}
	if out.ID != in.ID || out.Name != in.Name || !out.UnitCost.Equal(in.UnitCost) ||
		!out.CurrentStock.Equal(in.CurrentStock) || !out.MinimumStock.Equal(minimum) {
		t.Errorf("round trip: got %+v", out)
	}

	m.MinimumStock = nil
	out, err = fromIngredientModel(m)
	if err != nil {
		t.Fatal(err)
	}
	if out.MinimumStock != nil {
		t.Errorf("NULL minimum became %s", out.MinimumStock)
	}
}

func TestFromIngredientModelRejectsBadColumns(t *testing.T) {
	good := toIngredientModel(&ingredient.Ingredient{ID: id.NewIngredientID(), UnitCost: decimal.Zero})

	tests := []struct {
		name   string
		mutate func(*ingredientModel)
	}{
		{"recipe prefix", func(m *ingredientModel) { m.ID = id.NewRecipeID().String() }},
		{"unit cost", func(m *ingredientModel) { m.UnitCost = "abc" }},
		{"stock", func(m *ingredientModel) { m.CurrentStock = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := *good
			tt.mutate(&m)
			if _, err := fromIngredientModel(&m); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestFromMovementModel(t *testing.T) {
	m := &movementModel{
		ID:            id.NewMovementID().String(),
		IngredientID:  id.NewIngredientID().String(),
		Kind:          "CONSUMPTION",
		Quantity:      "1.500",
		PreviousStock: "10.000",
		NewStock:      "8.500",
		PerformedBy:   "kitchen",
	}

	mv, err := fromMovementModel(m)
	if err != nil {
		t.Fatal(err)
	}
	if !mv.RecipeID.IsNil() {
		t.Errorf("empty related recipe parsed as %s", mv.RecipeID)
	}
	if !mv.PreviousStock.Add(mv.Delta()).Equal(mv.NewStock) {
		t.Errorf("previous %s + delta %s != new %s", mv.PreviousStock, mv.Delta(), mv.NewStock)
	}

	m.RecipeID = id.NewRecipeID().String()
	mv, err = fromMovementModel(m)
	if err != nil {
		t.Fatal(err)
	}
	if mv.RecipeID.String() != m.RecipeID {
		t.Errorf("related recipe = %s, want %s", mv.RecipeID, m.RecipeID)
	}
}

func TestRecipeAndLineModels(t *testing.T) {
	price := decimal.RequireFromString("18.50")
	r := &recipe.Recipe{ID: id.NewRecipeID(), Name: "Paella", Servings: 4, SellingPrice: &price}

	back, err := fromRecipeModel(toRecipeModel(r))
	if err != nil {
		t.Fatal(err)
	}
	if back.SellingPrice == nil || !back.SellingPrice.Equal(price) || back.Lines == nil {
		t.Errorf("recipe round trip: %+v", back)
	}

	line := &recipe.Line{
		ID:           id.NewRecipeLineID(),
		RecipeID:     r.ID,
		IngredientID: id.NewIngredientID(),
		Quantity:     decimal.RequireFromString("0.002"),
	}
	got, err := fromLineModel(toLineModel(line))
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != line.ID || got.RecipeID != r.ID || !got.Quantity.Equal(line.Quantity) {
		t.Errorf("line round trip: %+v", got)
	}
}

func TestLikeEscaper(t *testing.T) {
	tests := []struct{ in, want string }{
		{"flour", "flour"},
		{"50%", `50\%`},
		{"a_b", `a\_b`},
		{`back\sl`, `back\\sl`},
		{`%_\`, `\%\_\\`},
	}
	for _, tt := range tests {
		if got := likeEscaper.Replace(tt.in); got != tt.want {
			t.Errorf("escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPostgresErrorCodes(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: codeUniqueViolation})
	fk := &pgconn.PgError{Code: codeForeignKeyViolation}

	if !isUniqueViolation(unique) || isForeignKeyViolation(unique) {
		t.Error("wrapped unique violation not classified")
	}
	if !isForeignKeyViolation(fk) || isUniqueViolation(fk) {
		t.Error("foreign key violation not classified")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Error("plain error classified as unique violation")
	}
}

func TestRecipeRef(t *testing.T) {
	if got := recipeRef(id.Nil); got != "" {
		t.Errorf("nil recipe ref = %q", got)
	}
	r := id.NewRecipeID()
	if got := recipeRef(r); got != r.String() {
		t.Errorf("recipe ref = %q", got)
	}
}

func TestWithRollback(t *testing.T) {
	insertErr := errors.New("insert lines failed")
	deleteErr := errors.New("delete header failed")

	rolledBack := false
	err := withRollback(insertErr, func() error {
		rolledBack = true
		return nil
	})
	if !rolledBack || err != insertErr { //nolint:errorlint // identity is the point
		t.Errorf("clean rollback: rolledBack=%v err=%v", rolledBack, err)
	}

	err = withRollback(insertErr, func() error { return deleteErr })
	if !errors.Is(err, insertErr) || !errors.Is(err, deleteErr) {
		t.Errorf("failed rollback must report both errors, got %v", err)
	}
}
