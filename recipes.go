package larder

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/recipe"
	"github.com/xraph/larder/types"
)

// ──────────────────────────────────────────────────
// Recipe / BOM graph
// ──────────────────────────────────────────────────

// CreateRecipe persists a new recipe together with any lines in req. Every
// line's ingredient must exist.
func (l *Larder) CreateRecipe(ctx context.Context, req RecipeRequest) (*recipe.Recipe, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := checkRecipeValues(req); err != nil {
		return nil, err
	}

	now := l.timestamp()
	r := &recipe.Recipe{
		Entity:       types.NewEntityAt(now),
		ID:           id.NewRecipeID(),
		Name:         req.Name,
		Description:  req.Description,
		Servings:     req.Servings,
		Instructions: req.Instructions,
		SellingPrice: roundOptionalMoney(req.SellingPrice),
		Lines:        make([]recipe.Line, 0, len(req.Lines)),
	}

	for _, lr := range req.Lines {
		line, err := l.newLine(ctx, r.ID, lr)
		if err != nil {
			return nil, err
		}
		r.Lines = append(r.Lines, *line)
	}

	if err := l.store.CreateRecipe(ctx, r); err != nil {
		return nil, err
	}

	l.plugins.EmitRecipeCreated(ctx, r)
	return l.store.GetRecipe(ctx, r.ID)
}

// UpdateRecipe replaces the descriptive fields of a recipe. Lines in req are
// ignored; the BOM is changed only through AddRecipeLine and
// RemoveRecipeLine.
func (l *Larder) UpdateRecipe(ctx context.Context, recipeID id.RecipeID, req RecipeRequest) (*recipe.Recipe, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Lines = nil
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := checkRecipeValues(req); err != nil {
		return nil, err
	}

	r, err := l.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	r.Name = req.Name
	r.Description = req.Description
	r.Servings = req.Servings
	r.Instructions = req.Instructions
	r.SellingPrice = roundOptionalMoney(req.SellingPrice)
	r.Touch(l.timestamp())

	if err := l.store.UpdateRecipe(ctx, r); err != nil {
		return nil, err
	}

	l.plugins.EmitRecipeUpdated(ctx, r)
	return r, nil
}

// AddRecipeLine appends a BOM line and returns the recipe with its lines.
func (l *Larder) AddRecipeLine(ctx context.Context, recipeID id.RecipeID, req AddLineRequest) (*recipe.Recipe, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := l.store.GetRecipe(ctx, recipeID); err != nil {
		return nil, err
	}

	line, err := l.newLine(ctx, recipeID, req)
	if err != nil {
		return nil, err
	}
	if err := l.store.AddRecipeLine(ctx, line); err != nil {
		return nil, err
	}

	return l.recipeChanged(ctx, recipeID)
}

// RemoveRecipeLine removes every line referencing the ingredient and returns
// the recipe with its remaining lines. Removing an ingredient the recipe
// does not use is not an error.
func (l *Larder) RemoveRecipeLine(ctx context.Context, recipeID id.RecipeID, ingredientID id.IngredientID) (*recipe.Recipe, error) {
	r, err := l.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	removed, err := l.store.RemoveRecipeLines(ctx, recipeID, ingredientID)
	if err != nil {
		return nil, err
	}
	if removed == 0 {
		return r, nil
	}

	return l.recipeChanged(ctx, recipeID)
}

// GetRecipe retrieves a recipe with its lines and their ingredients.
func (l *Larder) GetRecipe(ctx context.Context, recipeID id.RecipeID) (*recipe.Recipe, error) {
	return l.store.GetRecipe(ctx, recipeID)
}

// ListRecipes returns every recipe with its lines, in creation order.
func (l *Larder) ListRecipes(ctx context.Context) ([]*recipe.Recipe, error) {
	return l.store.ListRecipes(ctx)
}

// DeleteRecipe removes a recipe and its lines. Movements that reference the
// recipe keep the reference.
func (l *Larder) DeleteRecipe(ctx context.Context, recipeID id.RecipeID) error {
	if err := l.store.DeleteRecipe(ctx, recipeID); err != nil {
		return err
	}

	l.plugins.EmitRecipeDeleted(ctx, recipeID.String())
	return nil
}

func (l *Larder) recipeChanged(ctx context.Context, recipeID id.RecipeID) (*recipe.Recipe, error) {
	r, err := l.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	l.plugins.EmitRecipeUpdated(ctx, r)
	return r, nil
}

// newLine validates a line request against the store.
func (l *Larder) newLine(ctx context.Context, recipeID id.RecipeID, req AddLineRequest) (*recipe.Line, error) {
	qty := types.RoundQuantity(req.Quantity)
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, req.Quantity)
	}

	ingredientID, err := id.ParseIngredientID(req.IngredientID)
	if err != nil {
		return nil, fmt.Errorf("%w: ingredient id %q: %w", ErrInvalidArgument, req.IngredientID, err)
	}
	ingr, err := l.store.GetIngredient(ctx, ingredientID)
	if err != nil {
		return nil, err
	}

	return &recipe.Line{
		ID:           id.NewRecipeLineID(),
		RecipeID:     recipeID,
		IngredientID: ingredientID,
		Quantity:     qty,
		Notes:        req.Notes,
		CreatedAt:    l.timestamp(),
		Ingredient:   ingr,
	}, nil
}

func checkRecipeValues(req RecipeRequest) error {
	if req.Servings <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidServings, req.Servings)
	}
	if req.SellingPrice != nil && req.SellingPrice.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidPrice, req.SellingPrice)
	}
	return nil
}

func roundOptionalMoney(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := types.RoundMoney(*d)
	return &r
}
