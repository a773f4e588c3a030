package larder

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/movement"
)

// ProductionError reports a production run that stopped at one BOM line.
// Movements for earlier lines stay committed.
type ProductionError struct {
	RecipeID     id.RecipeID
	Line         int // 1-based position in the BOM
	IngredientID id.IngredientID
	Committed    []*movement.Movement
	Err          error
}

func (e *ProductionError) Error() string {
	return fmt.Sprintf("larder: production of recipe %s stopped at line %d (ingredient %s) after %d committed: %v",
		e.RecipeID, e.Line, e.IngredientID, len(e.Committed), e.Err)
}

func (e *ProductionError) Unwrap() error {
	return e.Err
}

// ProductionReason is the ledger reason recorded for each line of a
// production run.
func ProductionReason(recipeName string, quantity int) string {
	return fmt.Sprintf("Recipe production: %s x%d", recipeName, quantity)
}

// Produce consumes the BOM of a recipe scaled by quantity, recording one
// CONSUMPTION movement per line in BOM order.
//
// Each line is its own atomic ledger unit; there is no batch-wide
// transaction. If line k fails, lines before it stay committed, later lines
// are never attempted, and the returned *ProductionError names line k.
func (l *Larder) Produce(ctx context.Context, recipeID id.RecipeID, quantity int, performedBy string) ([]*movement.Movement, error) {
	var errs MultiError
	requireText(&errs, "performed_by", performedBy)
	if errs.HasErrors() {
		return nil, errs
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidProductionQuantity, quantity)
	}

	r, err := l.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	reason := ProductionReason(r.Name, quantity)
	scale := decimal.NewFromInt(int64(quantity))
	committed := make([]*movement.Movement, 0, len(r.Lines))

	for i, line := range r.Lines {
		var err error
		if line.Ingredient == nil {
			err = fmt.Errorf("%w: %s", ErrIngredientNotFound, line.IngredientID)
		} else {
			m := &movement.Movement{
				IngredientID: line.IngredientID,
				Kind:         movement.KindConsumption,
				Quantity:     line.Quantity.Mul(scale),
				Reason:       reason,
				PerformedBy:  performedBy,
				RecipeID:     r.ID,
			}
			if err = l.commit(ctx, m); err == nil {
				committed = append(committed, m)
				continue
			}
		}

		perr := &ProductionError{
			RecipeID:     r.ID,
			Line:         i + 1,
			IngredientID: line.IngredientID,
			Committed:    committed,
			Err:          err,
		}
		l.logger.Warn("production stopped partway",
			"recipe_id", r.ID.String(),
			"quantity", quantity,
			"line", i+1,
			"committed", len(committed),
			"error", err,
		)
		l.plugins.EmitProductionFailed(ctx, r, quantity, committed, perr)
		return committed, perr
	}

	l.logger.Debug("production completed",
		"recipe_id", r.ID.String(),
		"quantity", quantity,
		"movements", len(committed),
	)
	l.plugins.EmitProductionCompleted(ctx, r, quantity, committed)
	return committed, nil
}
