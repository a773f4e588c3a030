package movement

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"PURCHASE", KindPurchase},
		{"purchase", KindPurchase},
		{"Consumption", KindConsumption},
		{" adjustment ", KindAdjustment},
		{"waste", KindWaste},
		{"RETURN", KindReturn},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if err != nil {
				t.Fatalf("ParseKind(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseKindRejectsUnknown(t *testing.T) {
	_, err := ParseKind("THEFT")
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}

	var kindErr *KindError
	if !errors.As(err, &kindErr) {
		t.Fatalf("expected *KindError, got %T", err)
	}
	if kindErr.Value != "THEFT" {
		t.Errorf("Value: got %q, want %q", kindErr.Value, "THEFT")
	}

	msg := err.Error()
	for _, want := range []string{"'THEFT'", "PURCHASE", "CONSUMPTION", "ADJUSTMENT", "WASTE", "RETURN"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %s", msg, want)
		}
	}
}

func TestDeltaSignRule(t *testing.T) {
	qty := decimal.RequireFromString("2.5")
	tests := []struct {
		kind Kind
		want string
	}{
		{KindPurchase, "2.5"},
		{KindAdjustment, "2.5"},
		{KindConsumption, "-2.5"},
		{KindWaste, "-2.5"},
		{KindReturn, "-2.5"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := tt.kind.Delta(qty)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Delta = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range Kinds() {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}
	if Kind("purchase").Valid() {
		t.Error("lowercase kind must go through ParseKind")
	}
}

func TestListOptsMatches(t *testing.T) {
	ingr := id.NewIngredientID()
	rcp := id.NewRecipeID()
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m := &Movement{IngredientID: ingr, RecipeID: rcp, Kind: KindConsumption, CreatedAt: at}

	tests := []struct {
		name string
		opts ListOpts
		want bool
	}{
		{"empty filter", ListOpts{}, true},
		{"same ingredient", ListOpts{IngredientID: ingr}, true},
		{"other ingredient", ListOpts{IngredientID: id.NewIngredientID()}, false},
		{"same recipe", ListOpts{RecipeID: rcp}, true},
		{"other kind", ListOpts{Kind: KindWaste}, false},
		{"inclusive window", ListOpts{Start: at, End: at}, true},
		{"window before", ListOpts{End: at.Add(-time.Second)}, false},
		{"window after", ListOpts{Start: at.Add(time.Second)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.Matches(m); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
