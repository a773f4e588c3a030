// Package report exports inventory valuation, recipe KPIs and the stock
// ledger as an Excel workbook.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/xraph/larder/costing"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/types"
)

// Sheet names, in workbook order.
const (
	SheetInventory = "Inventory"
	SheetKPIs      = "Recipe KPIs"
	SheetMovements = "Movements"
)

// Source is the read side of the engine a report draws from. *larder.Larder
// satisfies it.
type Source interface {
	GetInventoryStatus(ctx context.Context) ([]ingredient.InventoryStatus, error)
	ComputeAllKPIs(ctx context.Context) ([]*costing.KPI, error)
	ListMovements(ctx context.Context) ([]*movement.Movement, error)
}

var (
	inventoryHeader = []any{"Ingredient", "Unit", "Current Stock", "Minimum Stock", "Low Stock", "Unit Cost", "Total Value"}
	kpiHeader       = []any{"Recipe", "Servings", "Total Cost", "Cost / Serving", "Selling Price", "Gross Profit", "Profit Margin %", "Food Cost %"}
	movementHeader  = []any{"Date", "Ingredient ID", "Type", "Quantity", "Previous Stock", "New Stock", "Reason", "Performed By", "Recipe ID"}
)

// Build reads everything from src and lays it out in a new workbook. The
// caller owns the returned file and must Close it.
func Build(ctx context.Context, src Source) (*excelize.File, error) {
	statuses, err := src.GetInventoryStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: inventory: %w", err)
	}
	kpis, err := src.ComputeAllKPIs(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: kpis: %w", err)
	}
	movements, err := src.ListMovements(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: movements: %w", err)
	}

	f := excelize.NewFile()
	w := &writer{f: f}
	w.init()

	w.sheet(SheetInventory, inventoryHeader, len(statuses), func(i int) []any {
		s := statuses[i]
		minimum := any("")
		if s.MinimumStock != nil {
			minimum = quantity(*s.MinimumStock)
		}
		return []any{
			s.Name, s.Unit, quantity(s.CurrentStock), minimum, yesNo(s.LowStock),
			money(s.UnitCost), money(s.TotalValue),
		}
	})
	w.sheet(SheetKPIs, kpiHeader, len(kpis), func(i int) []any {
		k := kpis[i]
		return []any{
			k.RecipeName, k.Servings, money(k.TotalCost), money(k.CostPerServing),
			money(k.SellingPrice), money(k.GrossProfit), ratio(k.ProfitMargin), ratio(k.FoodCostPercentage()),
		}
	})
	w.sheet(SheetMovements, movementHeader, len(movements), func(i int) []any {
		m := movements[i]
		recipeID := ""
		if !m.RecipeID.IsNil() {
			recipeID = m.RecipeID.String()
		}
		return []any{
			m.CreatedAt.UTC().Format(time.RFC3339), m.IngredientID.String(), string(m.Kind),
			quantity(m.Quantity), quantity(m.PreviousStock), quantity(m.NewStock),
			m.Reason, m.PerformedBy, recipeID,
		}
	})

	if w.err != nil {
		_ = f.Close() //nolint:errcheck // already failing
		return nil, w.err
	}
	return f, nil
}

// Write builds the workbook and streams it to out as xlsx.
func Write(ctx context.Context, src Source, out io.Writer) error {
	f, err := Build(ctx, src)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("report: write workbook: %w", err)
	}
	return nil
}

// writer keeps the first error so sheet layout reads top to bottom.
type writer struct {
	f      *excelize.File
	header int
	err    error
}

func (w *writer) init() {
	style, err := w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		w.err = err
		return
	}
	w.header = style
	// A new file starts with "Sheet1"; reuse it as the first sheet.
	w.err = w.f.SetSheetName("Sheet1", SheetInventory)
}

func (w *writer) sheet(name string, header []any, rows int, row func(int) []any) {
	if w.err != nil {
		return
	}
	idx, err := w.f.GetSheetIndex(name)
	if err != nil {
		w.err = err
		return
	}
	if idx < 0 {
		if _, err := w.f.NewSheet(name); err != nil {
			w.err = err
			return
		}
	}

	w.setRow(name, 1, header)
	if w.err == nil {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		w.err = w.f.SetCellStyle(name, "A1", last, w.header)
	}
	for i := 0; i < rows && w.err == nil; i++ {
		w.setRow(name, i+2, row(i))
	}
}

func (w *writer) setRow(sheet string, rowNo int, values []any) {
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(sheet, cell, &values)
}

func money(d decimal.Decimal) float64 {
	return types.RoundMoney(d).InexactFloat64()
}

func quantity(d decimal.Decimal) float64 {
	return types.RoundQuantity(d).InexactFloat64()
}

func ratio(d decimal.Decimal) float64 {
	return d.Round(types.MoneyScale).InexactFloat64()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
