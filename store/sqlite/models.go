package sqlite

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xraph/grove"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/recipe"
	"github.com/xraph/larder/types"
)

// ==================== Ingredient models ====================

type ingredientModel struct {
	grove.BaseModel `grove:"table:larder_ingredients"`

	ID           string `grove:"id,pk"`
	Name         string `grove:"name"`
	Description  string `grove:"description"`
	Unit         string `grove:"unit"`
	UnitCost     int64  `grove:"unit_cost"`
	CurrentStock int64  `grove:"current_stock"`
	MinimumStock *int64 `grove:"minimum_stock"`
	Supplier     string `grove:"supplier"`
	CreatedAt    int64  `grove:"created_at"`
	UpdatedAt    int64  `grove:"updated_at"`
}

func toIngredientModel(i *ingredient.Ingredient) *ingredientModel {
	return &ingredientModel{
		ID:           i.ID.String(),
		Name:         i.Name,
		Description:  i.Description,
		Unit:         i.Unit,
		UnitCost:     cents(i.UnitCost),
		CurrentStock: thousandths(i.CurrentStock),
		MinimumStock: optionalThousandths(i.MinimumStock),
		Supplier:     i.Supplier,
		CreatedAt:    stamp(i.CreatedAt),
		UpdatedAt:    stamp(i.UpdatedAt),
	}
}

func fromIngredientModel(m *ingredientModel) (*ingredient.Ingredient, error) {
	ingredientID, err := id.ParseIngredientID(m.ID)
	if err != nil {
		return nil, err
	}

	var minimum *decimal.Decimal
	if m.MinimumStock != nil {
		v := fromThousandths(*m.MinimumStock)
		minimum = &v
	}

	return &ingredient.Ingredient{
		Entity: types.Entity{
			CreatedAt: fromStamp(m.CreatedAt),
			UpdatedAt: fromStamp(m.UpdatedAt),
		},
		ID:           ingredientID,
		Name:         m.Name,
		Description:  m.Description,
		Unit:         m.Unit,
		UnitCost:     fromCents(m.UnitCost),
		CurrentStock: fromThousandths(m.CurrentStock),
		MinimumStock: minimum,
		Supplier:     m.Supplier,
	}, nil
}

// ==================== Movement models ====================

type movementModel struct {
	grove.BaseModel `grove:"table:larder_stock_movements"`

	ID            string `grove:"id,pk"`
	IngredientID  string `grove:"ingredient_id"`
	Kind          string `grove:"movement_type"`
	Quantity      int64  `grove:"quantity"`
	PreviousStock int64  `grove:"previous_stock"`
	NewStock      int64  `grove:"new_stock"`
	Reason        string `grove:"reason"`
	Notes         string `grove:"notes"`
	PerformedBy   string `grove:"performed_by"`
	RecipeID      string `grove:"related_recipe_id"`
	CreatedAt     int64  `grove:"created_at"`
}

func fromMovementModel(m *movementModel) (*movement.Movement, error) {
	movementID, err := id.ParseMovementID(m.ID)
	if err != nil {
		return nil, err
	}
	ingredientID, err := id.ParseIngredientID(m.IngredientID)
	if err != nil {
		return nil, err
	}
	recipeID, err := id.ParseOptional(m.RecipeID, id.PrefixRecipe)
	if err != nil {
		return nil, err
	}

	return &movement.Movement{
		ID:            movementID,
		IngredientID:  ingredientID,
		Kind:          movement.Kind(m.Kind),
		Quantity:      fromThousandths(m.Quantity),
		PreviousStock: fromThousandths(m.PreviousStock),
		NewStock:      fromThousandths(m.NewStock),
		Reason:        m.Reason,
		Notes:         m.Notes,
		PerformedBy:   m.PerformedBy,
		RecipeID:      recipeID,
		CreatedAt:     fromStamp(m.CreatedAt),
	}, nil
}

// ==================== Recipe models ====================

type recipeModel struct {
	grove.BaseModel `grove:"table:larder_recipes"`

	ID           string `grove:"id,pk"`
	Name         string `grove:"name"`
	Description  string `grove:"description"`
	Servings     int    `grove:"servings"`
	Instructions string `grove:"instructions"`
	SellingPrice *int64 `grove:"selling_price"`
	CreatedAt    int64  `grove:"created_at"`
	UpdatedAt    int64  `grove:"updated_at"`
}

func toRecipeModel(r *recipe.Recipe) *recipeModel {
	var price *int64
	if r.SellingPrice != nil {
		v := cents(*r.SellingPrice)
		price = &v
	}
	return &recipeModel{
		ID:           r.ID.String(),
		Name:         r.Name,
		Description:  r.Description,
		Servings:     r.Servings,
		Instructions: r.Instructions,
		SellingPrice: price,
		CreatedAt:    stamp(r.CreatedAt),
		UpdatedAt:    stamp(r.UpdatedAt),
	}
}

func fromRecipeModel(m *recipeModel) (*recipe.Recipe, error) {
	recipeID, err := id.ParseRecipeID(m.ID)
	if err != nil {
		return nil, err
	}

	var price *decimal.Decimal
	if m.SellingPrice != nil {
		v := fromCents(*m.SellingPrice)
		price = &v
	}

	return &recipe.Recipe{
		Entity: types.Entity{
			CreatedAt: fromStamp(m.CreatedAt),
			UpdatedAt: fromStamp(m.UpdatedAt),
		},
		ID:           recipeID,
		Name:         m.Name,
		Description:  m.Description,
		Servings:     m.Servings,
		Instructions: m.Instructions,
		SellingPrice: price,
		Lines:        []recipe.Line{},
	}, nil
}

type lineModel struct {
	grove.BaseModel `grove:"table:larder_recipe_lines"`

	ID           string `grove:"id,pk"`
	RecipeID     string `grove:"recipe_id"`
	IngredientID string `grove:"ingredient_id"`
	Quantity     int64  `grove:"quantity"`
	Notes        string `grove:"notes"`
	CreatedAt    int64  `grove:"created_at"`
}

func toLineModel(l *recipe.Line) *lineModel {
	return &lineModel{
		ID:           l.ID.String(),
		RecipeID:     l.RecipeID.String(),
		IngredientID: l.IngredientID.String(),
		Quantity:     thousandths(l.Quantity),
		Notes:        l.Notes,
		CreatedAt:    stamp(l.CreatedAt),
	}
}

func fromLineModel(m *lineModel) (recipe.Line, error) {
	lineID, err := id.ParseRecipeLineID(m.ID)
	if err != nil {
		return recipe.Line{}, err
	}
	recipeID, err := id.ParseRecipeID(m.RecipeID)
	if err != nil {
		return recipe.Line{}, err
	}
	ingredientID, err := id.ParseIngredientID(m.IngredientID)
	if err != nil {
		return recipe.Line{}, err
	}

	return recipe.Line{
		ID:           lineID,
		RecipeID:     recipeID,
		IngredientID: ingredientID,
		Quantity:     fromThousandths(m.Quantity),
		Notes:        m.Notes,
		CreatedAt:    fromStamp(m.CreatedAt),
	}, nil
}

// ==================== Fixed-point helpers ====================

func thousandths(d decimal.Decimal) int64 {
	return d.Shift(types.QuantityScale).Round(0).IntPart()
}

func fromThousandths(v int64) decimal.Decimal {
	return decimal.New(v, -types.QuantityScale)
}

func optionalThousandths(d *decimal.Decimal) *int64 {
	if d == nil {
		return nil
	}
	v := thousandths(*d)
	return &v
}

func cents(d decimal.Decimal) int64 {
	return d.Shift(types.MoneyScale).Round(0).IntPart()
}

func fromCents(v int64) decimal.Decimal {
	return decimal.New(v, -types.MoneyScale)
}

func stamp(t time.Time) int64 {
	return t.UnixNano()
}

func fromStamp(v int64) time.Time {
	return time.Unix(0, v).UTC()
}
