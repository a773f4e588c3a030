package larder_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xraph/larder"
	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/store/memory"
)

func TestCreateIngredient(t *testing.T) {
	l := newEngine(t)
	ctx := context.Background()

	flour := mustIngredient(t, l, "Flour", "2.004", "0", nil)
	if flour.ID.IsNil() || flour.ID.Prefix() != id.PrefixIngredient {
		t.Errorf("expected a generated ingredient ID, got %q", flour.ID)
	}
	if !flour.UnitCost.Equal(dec("2.00")) {
		t.Errorf("UnitCost: got %s, want 2.00", flour.UnitCost)
	}

	got, err := l.GetIngredient(ctx, flour.ID)
	if err != nil {
		t.Fatalf("GetIngredient failed: %v", err)
	}
	if got.Name != "Flour" || !got.CurrentStock.IsZero() {
		t.Errorf("unexpected ingredient: %+v", got)
	}
}

func TestCreateIngredientOpeningStockIsRecorded(t *testing.T) {
	l := newEngine(t)
	ctx := context.Background()

	sugar := mustIngredient(t, l, "Sugar", "1.50", "12.5", nil)
	if !stockOf(t, l, sugar).Equal(dec("12.5")) {
		t.Fatalf("stock: got %s, want 12.5", stockOf(t, l, sugar))
	}

	history, err := l.ListMovementsByIngredient(ctx, sugar.ID)
	if err != nil {
		t.Fatalf("ListMovementsByIngredient failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 opening movement, got %d", len(history))
	}
	m := history[0]
	if m.Kind != movement.KindAdjustment || m.Reason != larder.InitialStockReason || !m.NewStock.Equal(dec("12.5")) {
		t.Errorf("unexpected opening movement: %+v", m)
	}
}

func TestCreateIngredientErrors(t *testing.T) {
	l := newEngine(t)
	ctx := context.Background()
	mustIngredient(t, l, "Flour", "2.00", "0", nil)

	tests := []struct {
		name  string
		input *ingredient.Ingredient
		check func(error) bool
	}{
		{
			name:  "duplicate name",
			input: &ingredient.Ingredient{Name: "Flour", Unit: "kg", UnitCost: dec("1.00")},
			check: larder.IsConflict,
		},
		{
			name:  "zero unit cost",
			input: &ingredient.Ingredient{Name: "Salt", Unit: "kg", UnitCost: dec("0")},
			check: func(err error) bool {
				return errors.Is(err, larder.ErrInvalidUnitCost) && larder.IsInvalidArgument(err)
			},
		},
		{
			name:  "cost rounding to zero",
			input: &ingredient.Ingredient{Name: "Salt", Unit: "kg", UnitCost: dec("0.004")},
			check: larder.IsInvalidArgument,
		},
		{
			name:  "missing name",
			input: &ingredient.Ingredient{Name: "  ", Unit: "kg", UnitCost: dec("1.00")},
			check: larder.IsValidation,
		},
		{
			name:  "missing unit",
			input: &ingredient.Ingredient{Name: "Salt", UnitCost: dec("1.00")},
			check: larder.IsValidation,
		},
		{
			name:  "negative opening stock",
			input: &ingredient.Ingredient{Name: "Salt", Unit: "kg", UnitCost: dec("1.00"), CurrentStock: dec("-1")},
			check: larder.IsInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.CreateIngredient(ctx, tt.input)
			if err == nil || !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidationErrorNamesField(t *testing.T) {
	l := newEngine(t)

	err := l.CreateIngredient(context.Background(), &ingredient.Ingredient{UnitCost: dec("1.00")})
	var ve larder.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	var multi larder.MultiError
	if !errors.As(err, &multi) || len(multi.Errors) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
	fields := map[string]bool{}
	for _, e := range multi.Errors {
		fields[e.(larder.ValidationError).Field] = true
	}
	if !fields["name"] || !fields["unit"] {
		t.Errorf("expected name and unit fields, got %v", fields)
	}
}

func TestGetIngredientNotFound(t *testing.T) {
	l := newEngine(t)

	missing := id.NewIngredientID()
	_, err := l.GetIngredient(context.Background(), missing)
	if !larder.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, missing.String()) {
		t.Errorf("error %q does not name the ingredient", got)
	}
}

func TestGetIngredientByName(t *testing.T) {
	l := newEngine(t)
	ctx := context.Background()
	flour := mustIngredient(t, l, "Flour", "2.00", "3", nil)

	got, err := l.GetIngredientByName(ctx, "  Flour ")
	if err != nil {
		t.Fatalf("GetIngredientByName failed: %v", err)
	}
	if got.ID != flour.ID || !got.CurrentStock.Equal(dec("3")) {
		t.Errorf("unexpected ingredient: %+v", got)
	}

	_, err = l.GetIngredientByName(ctx, "flour")
	if !errors.Is(err, larder.ErrIngredientNotFound) {
		t.Fatalf("expected ErrIngredientNotFound for a case mismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), `"flour"`) {
		t.Errorf("error %q does not name the ingredient", err)
	}

	if _, err := l.GetIngredientByName(ctx, " "); !larder.IsValidation(err) {
		t.Errorf("expected validation error for a blank name, got %v", err)
	}
}

type failingLedgerStore struct {
	*memory.Store
}

func (s failingLedgerStore) RecordMovement(context.Context, *movement.Movement) error {
	return larder.ErrStoreClosed
}

func TestCreateIngredientOpeningStockFailure(t *testing.T) {
	s := failingLedgerStore{Store: memory.New()}
	l := larder.New(s, larder.WithLogger(quiet))
	t.Cleanup(func() { _ = l.Stop() })
	ctx := context.Background()

	i := &ingredient.Ingredient{Name: "Rice", Unit: "kg", UnitCost: dec("1.20"), CurrentStock: dec("5")}
	err := l.CreateIngredient(ctx, i)

	var openErr *larder.OpeningStockError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected *OpeningStockError, got %v", err)
	}
	if openErr.IngredientID != i.ID || !openErr.Quantity.Equal(dec("5")) || !errors.Is(err, larder.ErrStoreClosed) {
		t.Errorf("unexpected error: %+v", openErr)
	}

	stored, err := l.GetIngredient(ctx, i.ID)
	if err != nil {
		t.Fatalf("ingredient should exist after a failed opening adjustment: %v", err)
	}
	if !stored.CurrentStock.IsZero() {
		t.Errorf("stock: got %s, want 0", stored.CurrentStock)
	}
}

func TestUpdateIngredientLeavesStock(t *testing.T) {
	l := newEngine(t)
	ctx := context.Background()

	flour := mustIngredient(t, l, "Flour", "2.00", "40", nil)
	mustIngredient(t, l, "Rye", "3.00", "0", nil)

	updated, err := l.UpdateIngredient(ctx, flour.ID, larder.IngredientUpdate{
		Name:         "Wheat Flour",
		Unit:         "kg",
		UnitCost:     dec("2.255"),
		MinimumStock: decPtr("10"),
		Supplier:     "Mill Co",
	})
	if err != nil {
		t.Fatalf("UpdateIngredient failed: %v", err)
	}
	if updated.Name != "Wheat Flour" || !updated.UnitCost.Equal(dec("2.26")) || updated.Supplier != "Mill Co" {
		t.Errorf("unexpected update: %+v", updated)
	}
	if !stockOf(t, l, flour).Equal(dec("40")) {
		t.Errorf("stock changed: got %s, want 40", stockOf(t, l, flour))
	}

	t.Run("rename onto existing", func(t *testing.T) {
		_, err := l.UpdateIngredient(ctx, flour.ID, larder.IngredientUpdate{Name: "Rye", Unit: "kg", UnitCost: dec("1")})
		if !larder.IsConflict(err) {
			t.Errorf("expected conflict, got %v", err)
		}
	})

	t.Run("unknown ingredient", func(t *testing.T) {
		_, err := l.UpdateIngredient(ctx, id.NewIngredientID(), larder.IngredientUpdate{Name: "X", Unit: "kg", UnitCost: dec("1")})
		if !larder.IsNotFound(err) {
			t.Errorf("expected not found, got %v", err)
		}
	})
}

func TestListLowStock(t *testing.T) {
	l := newEngine(t)
	ctx := context.Background()

	mustIngredient(t, l, "Butter", "5.00", "15", decPtr("20"))
	mustIngredient(t, l, "Cream", "4.00", "25", decPtr("20"))
	mustIngredient(t, l, "Eggs", "0.30", "20", decPtr("20"))
	mustIngredient(t, l, "Yeast", "9.00", "0", nil)

	low, err := l.ListLowStock(ctx)
	if err != nil {
		t.Fatalf("ListLowStock failed: %v", err)
	}

	names := make([]string, 0, len(low))
	for _, i := range low {
		names = append(names, i.Name)
	}
	if len(names) != 2 || names[0] != "Butter" || names[1] != "Eggs" {
		t.Errorf("low stock: got %v, want [Butter Eggs]", names)
	}

	statuses, err := l.GetLowStockStatus(ctx)
	if err != nil {
		t.Fatalf("GetLowStockStatus failed: %v", err)
	}
	for _, s := range statuses {
		if !s.LowStock {
			t.Errorf("%s reported without low stock flag", s.Name)
		}
	}
}

func TestInventoryStatus(t *testing.T) {
	l := newEngine(t)
	ctx := context.Background()

	mustIngredient(t, l, "Butter", "5.00", "15", decPtr("20"))
	mustIngredient(t, l, "Almonds", "12.40", "2.5", nil)

	statuses, err := l.GetInventoryStatus(ctx)
	if err != nil {
		t.Fatalf("GetInventoryStatus failed: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}

	tests := []struct {
		name  string
		value string
		low   bool
	}{
		{"Almonds", "31", false},
		{"Butter", "75", true},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := statuses[i]
			if s.Name != tt.name || !s.TotalValue.Equal(dec(tt.value)) || s.LowStock != tt.low {
				t.Errorf("got %+v, want %s value %s low %v", s, tt.name, tt.value, tt.low)
			}
		})
	}
}

func TestSearchIngredients(t *testing.T) {
	l := newEngine(t)

	mustIngredient(t, l, "Brown Sugar", "2.00", "0", nil)
	mustIngredient(t, l, "Icing Sugar", "2.50", "0", nil)
	mustIngredient(t, l, "Flour", "1.00", "0", nil)

	found, err := l.SearchIngredients(context.Background(), "SUGAR")
	if err != nil {
		t.Fatalf("SearchIngredients failed: %v", err)
	}
	if len(found) != 2 || found[0].Name != "Brown Sugar" || found[1].Name != "Icing Sugar" {
		t.Errorf("unexpected search result: %v", found)
	}
}

func TestDeleteIngredientKeepsHistory(t *testing.T) {
	l := newEngine(t)
	ctx := context.Background()

	flour := mustIngredient(t, l, "Flour", "2.00", "10", nil)
	r := mustRecipe(t, l, "Bread", 4, nil, lineOf(flour, "1"))

	if err := l.DeleteIngredient(ctx, flour.ID); err != nil {
		t.Fatalf("DeleteIngredient failed: %v", err)
	}
	if err := l.DeleteIngredient(ctx, flour.ID); !larder.IsNotFound(err) {
		t.Errorf("second delete: expected not found, got %v", err)
	}

	history, err := l.ListMovementsByIngredient(ctx, flour.ID)
	if err != nil || len(history) != 1 {
		t.Errorf("expected ledger history to survive, got %d movements (err %v)", len(history), err)
	}

	got, err := l.GetRecipe(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRecipe failed: %v", err)
	}
	if len(got.Lines) != 1 || got.Lines[0].Ingredient != nil {
		t.Errorf("expected one unresolved line, got %+v", got.Lines)
	}
}
