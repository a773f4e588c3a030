package larder

import (
	"github.com/xraph/larder/costing"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/recipe"
	"github.com/xraph/larder/types"
)

// Re-export common types for convenience so users don't have to import the
// entity packages for everyday calls.

// Entity is re-exported from types package.
type Entity = types.Entity

// Ingredient is re-exported from ingredient package.
type Ingredient = ingredient.Ingredient

// InventoryStatus is re-exported from ingredient package.
type InventoryStatus = ingredient.InventoryStatus

// Movement is re-exported from movement package.
type Movement = movement.Movement

// MovementKind is re-exported from movement package.
type MovementKind = movement.Kind

// Recipe is re-exported from recipe package.
type Recipe = recipe.Recipe

// RecipeLine is re-exported from recipe package.
type RecipeLine = recipe.Line

// KPI is re-exported from costing package.
type KPI = costing.KPI

// Re-export movement kinds
const (
	Purchase    = movement.KindPurchase
	Consumption = movement.KindConsumption
	Adjustment  = movement.KindAdjustment
	Waste       = movement.KindWaste
	Return      = movement.KindReturn
)

// Re-export decimal helpers
var (
	Amount        = types.Amount
	RoundMoney    = types.RoundMoney
	RoundQuantity = types.RoundQuantity
	Sum           = types.Sum
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
