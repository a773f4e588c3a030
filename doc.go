// Package larder provides an inventory ledger and recipe costing engine for
// food-production applications.
//
// Larder is designed as a library, not a service. Import it directly into
// your Go application and back it with one of the bundled stores. It
// provides:
//
//   - An append-only stock ledger whose every entry updates the ingredient's
//     stock projection in the same atomic unit
//   - Recipes as aggregate roots owning a bill of materials (BOM)
//   - Food-cost KPIs rolled up through the BOM with exact decimal rounding
//   - Production runs that consume a scaled BOM line by line
//   - Low-stock detection, inventory valuation and an xlsx report
//   - Typed plugin hooks, audit trail and metrics adapters
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/larder"
//	    "github.com/xraph/larder/store/memory"
//	)
//
//	l := larder.New(memory.New())
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// Ingredients carry a unit cost and a current stock. Stock never changes
// except through the ledger:
//
//	flour := &larder.Ingredient{Name: "Flour", Unit: "kg", UnitCost: larder.Amount("2.00")}
//	err := l.CreateIngredient(ctx, flour)
//
//	m, err := l.RecordMovement(ctx, larder.RecordMovementRequest{
//	    IngredientID: flour.ID.String(),
//	    MovementType: "purchase",
//	    Quantity:     larder.Amount("25"),
//	    Reason:       "Weekly delivery",
//	    PerformedBy:  "alice",
//	})
//
// PURCHASE and ADJUSTMENT add to stock; CONSUMPTION, WASTE and RETURN
// subtract. Stock may go negative; that is reported through ListLowStock,
// not rejected.
//
// Recipes own their BOM lines. Costing walks the lines at call time:
//
//	kpi, err := l.ComputeKPI(ctx, recipeID)
//	// kpi.CostPerServing is rounded half-up to 2 places
//
// Production consumes every line scaled by the produced quantity:
//
//	movements, err := l.Produce(ctx, recipeID, 10, "kitchen")
//
// A production run is not a single transaction. When a line fails, the
// earlier lines stay committed and the error is a *ProductionError.
//
// # Decimal arithmetic
//
// All money and quantities are github.com/shopspring/decimal values. Money
// is kept to 2 places, quantities to 3 and ratios to 4, rounding half away
// from zero.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	ingr_01h2xcejqtf2nbrexx3vqjhp41  // Ingredient ID
//	rcp_01h2xcejqtf2nbrexx3vqjhp41   // Recipe ID
//	smv_01h455vb4pex5vsknk084sn02q   // Stock movement ID
package larder
