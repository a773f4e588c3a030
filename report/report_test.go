package report_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/xraph/larder"
	"github.com/xraph/larder/costing"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/report"
	"github.com/xraph/larder/store/memory"
)

func seeded(t *testing.T) *larder.Larder {
	t.Helper()
	ctx := context.Background()

	l := larder.New(memory.New(), larder.WithLogger(slog.New(slog.DiscardHandler)))
	t.Cleanup(func() { _ = l.Stop() })

	flour := &larder.Ingredient{Name: "Flour", Unit: "kg", UnitCost: decimal.RequireFromString("2"), CurrentStock: decimal.RequireFromString("10")}
	if err := l.CreateIngredient(ctx, flour); err != nil {
		t.Fatal(err)
	}
	price := decimal.RequireFromString("10")
	r, err := l.CreateRecipe(ctx, larder.RecipeRequest{
		Name:         "Bread",
		Servings:     4,
		SellingPrice: &price,
		Lines:        []larder.AddLineRequest{{IngredientID: flour.ID.String(), Quantity: decimal.RequireFromString("1")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Produce(ctx, r.ID, 2, "kitchen"); err != nil {
		t.Fatal(err)
	}
	return l
}

func cell(t *testing.T, f *excelize.File, sheet, axis string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, axis)
	if err != nil {
		t.Fatalf("%s!%s: %v", sheet, axis, err)
	}
	return v
}

func number(t *testing.T, f *excelize.File, sheet, axis string) float64 {
	t.Helper()
	v := cell(t, f, sheet, axis)
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		t.Fatalf("%s!%s = %q is not a number", sheet, axis, v)
	}
	return n
}

func TestBuildWorkbook(t *testing.T) {
	f, err := report.Build(context.Background(), seeded(t))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{report.SheetInventory, report.SheetKPIs, report.SheetMovements}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, sheets[i], want[i])
		}
	}

	texts := []struct {
		sheet, axis, want string
	}{
		{report.SheetInventory, "A1", "Ingredient"},
		{report.SheetInventory, "A2", "Flour"},
		{report.SheetInventory, "B2", "kg"},
		{report.SheetInventory, "D2", ""},
		{report.SheetInventory, "E2", "no"},
		{report.SheetKPIs, "A2", "Bread"},
		{report.SheetMovements, "C2", string(movement.KindConsumption)},
		{report.SheetMovements, "C3", string(movement.KindAdjustment)},
		{report.SheetMovements, "H2", "kitchen"},
	}
	for _, tt := range texts {
		t.Run(tt.sheet+"!"+tt.axis, func(t *testing.T) {
			if got := cell(t, f, tt.sheet, tt.axis); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	numbers := []struct {
		sheet, axis string
		want        float64
	}{
		{report.SheetInventory, "C2", 8},
		{report.SheetInventory, "F2", 2},
		{report.SheetInventory, "G2", 16},
		{report.SheetKPIs, "B2", 4},
		{report.SheetKPIs, "C2", 2},
		{report.SheetKPIs, "D2", 0.5},
		{report.SheetKPIs, "E2", 10},
		{report.SheetKPIs, "F2", 9.5},
		{report.SheetKPIs, "G2", 95},
		{report.SheetKPIs, "H2", 5},
		{report.SheetMovements, "D2", 2},
		{report.SheetMovements, "E2", 10},
		{report.SheetMovements, "F2", 8},
	}
	for _, tt := range numbers {
		t.Run(tt.sheet+"!"+tt.axis, func(t *testing.T) {
			if got := number(t, f, tt.sheet, tt.axis); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if got := cell(t, f, report.SheetMovements, "I2"); got == "" {
		t.Error("consumption row should reference the recipe")
	}
	if got := cell(t, f, report.SheetMovements, "I3"); got != "" {
		t.Errorf("opening adjustment has recipe %q", got)
	}
}

func TestWriteProducesReadableWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := report.Write(context.Background(), seeded(t), &buf); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got := cell(t, f, report.SheetKPIs, "A1"); got != "Recipe" {
		t.Errorf("KPI header = %q", got)
	}
}

type failingSource struct{ err error }

func (s failingSource) GetInventoryStatus(context.Context) ([]ingredient.InventoryStatus, error) {
	return nil, nil
}

func (s failingSource) ComputeAllKPIs(context.Context) ([]*costing.KPI, error) {
	return nil, s.err
}

func (s failingSource) ListMovements(context.Context) ([]*movement.Movement, error) {
	return nil, nil
}

func TestBuildPropagatesSourceErrors(t *testing.T) {
	_, err := report.Build(context.Background(), failingSource{err: larder.ErrRecipeNotFound})
	if !errors.Is(err, larder.ErrRecipeNotFound) {
		t.Errorf("got %v, want ErrRecipeNotFound", err)
	}
}
