package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder"
	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/recipe"
	"github.com/xraph/larder/types"
)

func newIngredient(name string) *ingredient.Ingredient {
	return &ingredient.Ingredient{
		Entity:   types.NewEntity(),
		ID:       id.NewIngredientID(),
		Name:     name,
		Unit:     "kg",
		UnitCost: types.Amount("1.00"),
	}
}

func newMovement(i *ingredient.Ingredient, kind movement.Kind, qty string) *movement.Movement {
	return &movement.Movement{
		ID:           id.NewMovementID(),
		IngredientID: i.ID,
		Kind:         kind,
		Quantity:     types.Amount(qty),
		Reason:       "test",
		PerformedBy:  "tester",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestRecordMovementFillsSnapshots(t *testing.T) {
	s := New()
	ctx := context.Background()
	i := newIngredient("Flour")
	if err := s.CreateIngredient(ctx, i); err != nil {
		t.Fatal(err)
	}

	m := newMovement(i, movement.KindPurchase, "7.5")
	if err := s.RecordMovement(ctx, m); err != nil {
		t.Fatalf("RecordMovement failed: %v", err)
	}
	if !m.PreviousStock.IsZero() || !m.NewStock.Equal(types.Amount("7.5")) {
		t.Errorf("snapshots: %s -> %s", m.PreviousStock, m.NewStock)
	}

	got, err := s.GetIngredient(ctx, i.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.CurrentStock.Equal(m.NewStock) {
		t.Errorf("stock %s, want %s", got.CurrentStock, m.NewStock)
	}
}

func TestRecordMovementUnknownIngredient(t *testing.T) {
	s := New()
	ctx := context.Background()

	m := newMovement(newIngredient("Ghost"), movement.KindWaste, "1")
	if err := s.RecordMovement(ctx, m); !errors.Is(err, larder.ErrIngredientNotFound) {
		t.Fatalf("expected ErrIngredientNotFound, got %v", err)
	}

	all, err := s.ListMovements(ctx, movement.ListOpts{})
	if err != nil || len(all) != 0 {
		t.Errorf("failed movement must not be stored: %d (err %v)", len(all), err)
	}
}

func TestConcurrentMovementsAcrossIngredients(t *testing.T) {
	s := New()
	ctx := context.Background()

	ingredients := []*ingredient.Ingredient{newIngredient("A"), newIngredient("B"), newIngredient("C")}
	for _, i := range ingredients {
		if err := s.CreateIngredient(ctx, i); err != nil {
			t.Fatal(err)
		}
	}

	var wg sync.WaitGroup
	for range 40 {
		for _, i := range ingredients {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.RecordMovement(ctx, newMovement(i, movement.KindPurchase, "0.125")); err != nil {
					t.Error(err)
				}
			}()
		}
	}
	wg.Wait()

	for _, i := range ingredients {
		got, err := s.GetIngredient(ctx, i.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !got.CurrentStock.Equal(types.Amount("5")) {
			t.Errorf("%s: stock %s, want 5", i.Name, got.CurrentStock)
		}
	}
}

func TestIngredientCopiesAreIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()
	i := newIngredient("Flour")
	minimum := types.Amount("3")
	i.MinimumStock = &minimum
	if err := s.CreateIngredient(ctx, i); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetIngredient(ctx, i.ID)
	got.Name = "Changed"
	*got.MinimumStock = decimal.NewFromInt(99)

	again, _ := s.GetIngredient(ctx, i.ID)
	if again.Name != "Flour" || !again.MinimumStock.Equal(types.Amount("3")) {
		t.Errorf("store state leaked through a returned value: %+v", again)
	}
}

func TestUpdateIngredientPreservesStock(t *testing.T) {
	s := New()
	ctx := context.Background()
	i := newIngredient("Flour")
	if err := s.CreateIngredient(ctx, i); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordMovement(ctx, newMovement(i, movement.KindPurchase, "4")); err != nil {
		t.Fatal(err)
	}

	stale := *i
	stale.UnitCost = types.Amount("9.99")
	if err := s.UpdateIngredient(ctx, &stale); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetIngredient(ctx, i.ID)
	if !got.CurrentStock.Equal(types.Amount("4")) || !got.UnitCost.Equal(types.Amount("9.99")) {
		t.Errorf("unexpected ingredient after update: %+v", got)
	}
}

func TestListIngredientsPagination(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, n := range []string{"Dill", "Basil", "Chives", "Anise"} {
		if err := s.CreateIngredient(ctx, newIngredient(n)); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		opts  ingredient.ListOpts
		names []string
	}{
		{"all", ingredient.ListOpts{}, []string{"Anise", "Basil", "Chives", "Dill"}},
		{"limit", ingredient.ListOpts{Limit: 2}, []string{"Anise", "Basil"}},
		{"offset", ingredient.ListOpts{Offset: 3}, []string{"Dill"}},
		{"past end", ingredient.ListOpts{Offset: 10}, []string{}},
		{"search", ingredient.ListOpts{Search: "i"}, []string{"Anise", "Basil", "Chives", "Dill"}},
		{"search narrow", ingredient.ListOpts{Search: "ch"}, []string{"Chives"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListIngredients(ctx, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.names) {
				t.Fatalf("got %d ingredients, want %d", len(got), len(tt.names))
			}
			for i, n := range tt.names {
				if got[i].Name != n {
					t.Errorf("position %d: got %s, want %s", i, got[i].Name, n)
				}
			}
		})
	}
}

func TestRecipeLinesResolveAndCascade(t *testing.T) {
	s := New()
	ctx := context.Background()
	flour := newIngredient("Flour")
	if err := s.CreateIngredient(ctx, flour); err != nil {
		t.Fatal(err)
	}

	r := &recipe.Recipe{Entity: types.NewEntity(), ID: id.NewRecipeID(), Name: "Bread", Servings: 2}
	r.Lines = []recipe.Line{{ID: id.NewRecipeLineID(), IngredientID: flour.ID, Quantity: types.Amount("1")}}
	if err := s.CreateRecipe(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.AddRecipeLine(ctx, &recipe.Line{ID: id.NewRecipeLineID(), RecipeID: r.ID, IngredientID: flour.ID, Quantity: types.Amount("2")}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetRecipe(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Lines) != 2 || got.Lines[0].Ingredient == nil || got.Lines[0].RecipeID.String() != r.ID.String() {
		t.Fatalf("unexpected lines: %+v", got.Lines)
	}

	removed, err := s.RemoveRecipeLines(ctx, r.ID, flour.ID)
	if err != nil || removed != 2 {
		t.Errorf("RemoveRecipeLines: removed %d (err %v), want 2", removed, err)
	}

	if err := s.DeleteRecipe(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.AddRecipeLine(ctx, &recipe.Line{RecipeID: r.ID, IngredientID: flour.ID}); !errors.Is(err, larder.ErrRecipeNotFound) {
		t.Errorf("expected ErrRecipeNotFound after delete, got %v", err)
	}
	list, _ := s.ListRecipes(ctx)
	if len(list) != 0 {
		t.Errorf("expected no recipes, got %d", len(list))
	}
}

func TestClose(t *testing.T) {
	s := New()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, larder.ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
}
