package larder

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/types"
)

// InitialStockReason is the ledger reason recorded for an ingredient's
// opening stock.
const InitialStockReason = "Initial stock"

// SystemPerformer identifies movements the engine records on its own behalf.
const SystemPerformer = "system"

// OpeningStockError reports an ingredient that was created but whose
// opening ADJUSTMENT could not be recorded. The ingredient exists with zero
// stock; record the balance with RecordMovement rather than creating it again.
type OpeningStockError struct {
	IngredientID id.IngredientID
	Quantity     decimal.Decimal
	Err          error
}

func (e *OpeningStockError) Error() string {
	return fmt.Sprintf("larder: ingredient %s created without its opening stock of %s: %v",
		e.IngredientID, e.Quantity, e.Err)
}

func (e *OpeningStockError) Unwrap() error {
	return e.Err
}

// CreateIngredient persists a new ingredient.
//
// A non-zero CurrentStock on i is not written directly: the ingredient is
// stored empty and the opening balance is recorded as an ADJUSTMENT so the
// ledger accounts for every unit of stock. The two steps are separate; if
// the adjustment fails the ingredient stays stored with zero stock and the
// error is an *OpeningStockError.
func (l *Larder) CreateIngredient(ctx context.Context, i *ingredient.Ingredient) error {
	i.Name = strings.TrimSpace(i.Name)
	i.Unit = strings.TrimSpace(i.Unit)
	if err := validateStruct(i); err != nil {
		return err
	}
	if err := checkIngredientValues(i.UnitCost, i.MinimumStock); err != nil {
		return err
	}
	opening := types.RoundQuantity(i.CurrentStock)
	if opening.IsNegative() {
		return fmt.Errorf("%w: initial stock %s", ErrInvalidQuantity, opening)
	}

	if i.ID.IsNil() {
		i.ID = id.NewIngredientID()
	}
	i.Entity = types.NewEntityAt(l.timestamp())
	i.UnitCost = types.RoundMoney(i.UnitCost)
	i.MinimumStock = roundOptionalQuantity(i.MinimumStock)
	i.CurrentStock = decimal.Zero

	if err := l.store.CreateIngredient(ctx, i); err != nil {
		return err
	}

	l.plugins.EmitIngredientCreated(ctx, i)

	if opening.IsPositive() {
		m := &movement.Movement{
			IngredientID: i.ID,
			Kind:         movement.KindAdjustment,
			Quantity:     opening,
			Reason:       InitialStockReason,
			PerformedBy:  SystemPerformer,
		}
		if err := l.commit(ctx, m); err != nil {
			return &OpeningStockError{IngredientID: i.ID, Quantity: opening, Err: err}
		}
		i.CurrentStock = m.NewStock
	}

	return nil
}

// GetIngredient retrieves an ingredient by ID.
func (l *Larder) GetIngredient(ctx context.Context, ingredientID id.IngredientID) (*ingredient.Ingredient, error) {
	return l.store.GetIngredient(ctx, ingredientID)
}

// GetIngredientByName retrieves an ingredient by its exact name.
func (l *Larder) GetIngredientByName(ctx context.Context, name string) (*ingredient.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ValidationError{Field: "name", Message: "is required"}
	}
	return l.store.GetIngredientByName(ctx, name)
}

// UpdateIngredient replaces the descriptive fields and unit cost of an
// ingredient. Current stock is left untouched.
func (l *Larder) UpdateIngredient(ctx context.Context, ingredientID id.IngredientID, upd IngredientUpdate) (*ingredient.Ingredient, error) {
	upd.Name = strings.TrimSpace(upd.Name)
	upd.Unit = strings.TrimSpace(upd.Unit)
	if err := validateStruct(upd); err != nil {
		return nil, err
	}
	if err := checkIngredientValues(upd.UnitCost, upd.MinimumStock); err != nil {
		return nil, err
	}

	before, err := l.store.GetIngredient(ctx, ingredientID)
	if err != nil {
		return nil, err
	}

	after := *before
	after.Name = upd.Name
	after.Description = upd.Description
	after.Unit = upd.Unit
	after.UnitCost = types.RoundMoney(upd.UnitCost)
	after.MinimumStock = roundOptionalQuantity(upd.MinimumStock)
	after.Supplier = upd.Supplier
	after.Touch(l.timestamp())

	if err := l.store.UpdateIngredient(ctx, &after); err != nil {
		return nil, err
	}

	l.plugins.EmitIngredientUpdated(ctx, before, &after)
	return &after, nil
}

// DeleteIngredient removes an ingredient. Its ledger history and any BOM
// lines referencing it are kept; those lines resolve to no ingredient from
// then on.
func (l *Larder) DeleteIngredient(ctx context.Context, ingredientID id.IngredientID) error {
	if err := l.store.DeleteIngredient(ctx, ingredientID); err != nil {
		return err
	}

	l.plugins.EmitIngredientDeleted(ctx, ingredientID.String())
	return nil
}

// ListIngredients returns all ingredients ordered by name.
func (l *Larder) ListIngredients(ctx context.Context) ([]*ingredient.Ingredient, error) {
	return l.store.ListIngredients(ctx, ingredient.ListOpts{})
}

// SearchIngredients returns ingredients whose name contains query,
// ignoring case.
func (l *Larder) SearchIngredients(ctx context.Context, query string) ([]*ingredient.Ingredient, error) {
	return l.store.ListIngredients(ctx, ingredient.ListOpts{Search: strings.TrimSpace(query)})
}

// ListLowStock returns ingredients with a minimum set whose current stock is
// at or below it.
func (l *Larder) ListLowStock(ctx context.Context) ([]*ingredient.Ingredient, error) {
	return l.store.ListLowStock(ctx)
}

// GetInventoryStatus values every ingredient at its current unit cost.
func (l *Larder) GetInventoryStatus(ctx context.Context) ([]ingredient.InventoryStatus, error) {
	all, err := l.store.ListIngredients(ctx, ingredient.ListOpts{})
	if err != nil {
		return nil, err
	}
	return statuses(all), nil
}

// GetLowStockStatus is GetInventoryStatus restricted to low-stock ingredients.
func (l *Larder) GetLowStockStatus(ctx context.Context) ([]ingredient.InventoryStatus, error) {
	low, err := l.store.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return statuses(low), nil
}

func statuses(all []*ingredient.Ingredient) []ingredient.InventoryStatus {
	out := make([]ingredient.InventoryStatus, 0, len(all))
	for _, i := range all {
		out = append(out, i.Status())
	}
	return out
}

func checkIngredientValues(unitCost decimal.Decimal, minimum *decimal.Decimal) error {
	if !types.RoundMoney(unitCost).IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidUnitCost, unitCost)
	}
	if minimum != nil && minimum.IsNegative() {
		return fmt.Errorf("%w: minimum stock %s", ErrInvalidQuantity, minimum)
	}
	return nil
}

func roundOptionalQuantity(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := types.RoundQuantity(*d)
	return &r
}
