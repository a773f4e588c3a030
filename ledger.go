package larder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/types"
)

// ──────────────────────────────────────────────────
// Stock Ledger
// ──────────────────────────────────────────────────

// RecordMovement parses and records an external movement request.
//
// Missing required fields fail with ErrValidation; a non-positive quantity
// or unknown movement type fails with an invalid-argument error; an unknown
// ingredient or related recipe fails with a not-found error.
func (l *Larder) RecordMovement(ctx context.Context, req RecordMovementRequest) (*movement.Movement, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !types.RoundQuantity(req.Quantity).IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, req.Quantity)
	}
	kind, err := movement.ParseKind(req.MovementType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMovementKind, err)
	}

	ingredientID, err := id.ParseIngredientID(req.IngredientID)
	if err != nil {
		return nil, fmt.Errorf("%w: ingredient id %q: %w", ErrInvalidArgument, req.IngredientID, err)
	}
	recipeID, err := id.ParseOptional(req.RelatedRecipeID, id.PrefixRecipe)
	if err != nil {
		return nil, fmt.Errorf("%w: recipe id %q: %w", ErrInvalidArgument, req.RelatedRecipeID, err)
	}

	m := &movement.Movement{
		IngredientID: ingredientID,
		Kind:         kind,
		Quantity:     req.Quantity,
		Reason:       req.Reason,
		Notes:        req.Notes,
		PerformedBy:  req.PerformedBy,
		RecipeID:     recipeID,
	}
	if err := l.Record(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Record appends m to the ledger and applies its signed quantity to the
// ingredient's stock in one atomic unit. On success m carries its ID,
// timestamp and the stock snapshots either side of the change.
func (l *Larder) Record(ctx context.Context, m *movement.Movement) error {
	var errs MultiError
	if m.IngredientID.IsNil() {
		errs.Add(ValidationError{Field: "ingredient_id", Message: "is required"})
	}
	requireText(&errs, "reason", m.Reason)
	requireText(&errs, "performed_by", m.PerformedBy)
	if errs.HasErrors() {
		return errs
	}

	m.Quantity = types.RoundQuantity(m.Quantity)
	if !m.Quantity.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidQuantity, m.Quantity)
	}
	if !m.Kind.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidMovementKind, &movement.KindError{Value: string(m.Kind)})
	}

	if !m.RecipeID.IsNil() {
		if _, err := l.store.GetRecipe(ctx, m.RecipeID); err != nil {
			return err
		}
	}

	return l.commit(ctx, m)
}

// commit hands a validated movement to the store and notifies plugins.
func (l *Larder) commit(ctx context.Context, m *movement.Movement) error {
	if m.ID.IsNil() {
		m.ID = id.NewMovementID()
	}
	m.CreatedAt = l.timestamp()

	if err := l.store.RecordMovement(ctx, m); err != nil {
		return err
	}

	l.plugins.EmitStockRecorded(ctx, m)
	l.checkLowStock(ctx, m)
	return nil
}

// checkLowStock emits OnLowStock when m took the ingredient from above its
// minimum to at or below it.
func (l *Larder) checkLowStock(ctx context.Context, m *movement.Movement) {
	i, err := l.store.GetIngredient(ctx, m.IngredientID)
	if err != nil {
		if !errors.Is(err, ErrIngredientNotFound) {
			l.logger.Warn("low stock check failed",
				"ingredient_id", m.IngredientID.String(),
				"error", err,
			)
		}
		return
	}
	if i.MinimumStock == nil {
		return
	}
	if m.PreviousStock.GreaterThan(*i.MinimumStock) && m.NewStock.LessThanOrEqual(*i.MinimumStock) {
		l.plugins.EmitLowStock(ctx, i)
	}
}

// ListMovements returns the whole ledger, newest first.
func (l *Larder) ListMovements(ctx context.Context) ([]*movement.Movement, error) {
	return l.store.ListMovements(ctx, movement.ListOpts{})
}

// ListMovementsByIngredient returns an ingredient's movements, newest first.
func (l *Larder) ListMovementsByIngredient(ctx context.Context, ingredientID id.IngredientID) ([]*movement.Movement, error) {
	return l.store.ListMovements(ctx, movement.ListOpts{IngredientID: ingredientID})
}

// ListMovementsByKind returns movements of one kind, newest first.
func (l *Larder) ListMovementsByKind(ctx context.Context, kind movement.Kind) ([]*movement.Movement, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMovementKind, &movement.KindError{Value: string(kind)})
	}
	return l.store.ListMovements(ctx, movement.ListOpts{Kind: kind})
}

// ListMovementsBetween returns movements created within [start, end],
// newest first.
func (l *Larder) ListMovementsBetween(ctx context.Context, start, end time.Time) ([]*movement.Movement, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s is before start %s", ErrInvalidArgument, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return l.store.ListMovements(ctx, movement.ListOpts{Start: start, End: end})
}

// ListMovementsByRecipe returns movements tagged with a recipe, newest first.
func (l *Larder) ListMovementsByRecipe(ctx context.Context, recipeID id.RecipeID) ([]*movement.Movement, error) {
	return l.store.ListMovements(ctx, movement.ListOpts{RecipeID: recipeID})
}
