// Package ingredient defines stocked ingredients and their inventory
// status projection.
package ingredient

import (
	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/types"
)

// Ingredient is a stocked raw material. CurrentStock is a projection of the
// stock ledger and only changes through recorded movements.
type Ingredient struct {
	types.Entity
	ID           id.IngredientID  `json:"id"`
	Name         string           `json:"name" validate:"required"`
	Description  string           `json:"description,omitempty"`
	Unit         string           `json:"unit" validate:"required"`
	UnitCost     decimal.Decimal  `json:"unit_cost"`
	CurrentStock decimal.Decimal  `json:"current_stock"`
	MinimumStock *decimal.Decimal `json:"minimum_stock,omitempty"`
	Supplier     string           `json:"supplier,omitempty"`
}

// IsLowStock reports whether a minimum is set and stock is at or below it.
func (i *Ingredient) IsLowStock() bool {
	return i.MinimumStock != nil && i.CurrentStock.LessThanOrEqual(*i.MinimumStock)
}

// InventoryStatus is a point-in-time valuation of one ingredient.
type InventoryStatus struct {
	IngredientID id.IngredientID  `json:"ingredient_id"`
	Name         string           `json:"name"`
	CurrentStock decimal.Decimal  `json:"current_stock"`
	MinimumStock *decimal.Decimal `json:"minimum_stock,omitempty"`
	Unit         string           `json:"unit"`
	LowStock     bool             `json:"low_stock"`
	UnitCost     decimal.Decimal  `json:"unit_cost"`
	TotalValue   decimal.Decimal  `json:"total_value"`
}

// Status builds the inventory status of i. TotalValue is stock times unit
// cost, unrounded.
func (i *Ingredient) Status() InventoryStatus {
	return InventoryStatus{
		IngredientID: i.ID,
		Name:         i.Name,
		CurrentStock: i.CurrentStock,
		MinimumStock: i.MinimumStock,
		Unit:         i.Unit,
		LowStock:     i.IsLowStock(),
		UnitCost:     i.UnitCost,
		TotalValue:   i.CurrentStock.Mul(i.UnitCost),
	}
}
