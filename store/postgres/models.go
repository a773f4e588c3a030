package postgres

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

// Decimal columns are NUMERIC in the schema and travel as their text form
// so no precision is lost between the driver and shopspring/decimal.

// ==================== Ingredient models ====================

type ingredientModel struct {
	grove.BaseModel `grove:"table:larder_ingredients"`

	ID           string    `grove:"id,pk"`
	Name         string    `grove:"name"`
	Description  string    `grove:"description"`
	Unit         string    `grove:"unit"`
	UnitCost     string    `grove:"unit_cost"`
	CurrentStock string    `grove:"current_stock"`
	MinimumStock *string   `grove:"minimum_stock"`
	Supplier     string    `grove:"supplier"`
	CreatedAt    time.Time `grove:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"`
}

func toIngredientModel(i *ingredient.Ingredient) *ingredientModel {
	return &ingredientModel{
		ID:           i.ID.String(),
		Name:         i.Name,
		Description:  i.Description,
		Unit:         i.Unit,
		UnitCost:     i.UnitCost.String(),
		CurrentStock: i.CurrentStock.String(),
		MinimumStock: optionalText(i.MinimumStock),
		Supplier:     i.Supplier,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

func fromIngredientModel(m *ingredientModel) (*ingredient.Ingredient, error) {
	ingredientID, err := id.ParseIngredientID(m.ID)
	if err != nil {
		return nil, err
	}
	unitCost, err := decimal.NewFromString(m.UnitCost)
	if err != nil {
		return nil, err
	}
	stock, err := decimal.NewFromString(m.CurrentStock)
	if err != nil {
		return nil, err
	}
	minimum, err := optionalDecimal(m.MinimumStock)
	if err != nil {
		return nil, err
	}

	return &ingredient.Ingredient{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           ingredientID,
		Name:         m.Name,
		Description:  m.Description,
		Unit:         m.Unit,
		UnitCost:     unitCost,
		CurrentStock: stock,
		MinimumStock: minimum,
		Supplier:     m.Supplier,
	}, nil
}

// ==================== Movement models ====================

type movementModel struct {
	grove.BaseModel `grove:"table:larder_stock_movements"`

	ID            string    `grove:"id,pk"`
	IngredientID  string    `grove:"ingredient_id"`
	Kind          string    `grove:"movement_type"`
	Quantity      string    `grove:"quantity"`
	PreviousStock string    `grove:"previous_stock"`
	NewStock      string    `grove:"new_stock"`
	Reason        string    `grove:"reason"`
	Notes         string    `grove:"notes"`
	PerformedBy   string    `grove:"performed_by"`
	RecipeID      string    `grove:"related_recipe_id"`
	CreatedAt     time.Time `grove:"created_at"`
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

	var values [3]decimal.Decimal
	for n, s := range []string{m.Quantity, m.PreviousStock, m.NewStock} {
		if values[n], err = decimal.NewFromString(s); err != nil {
			return nil, err
		}
	}

	return &movement.Movement{
		ID:            movementID,
		IngredientID:  ingredientID,
		Kind:          movement.Kind(m.Kind),
		Quantity:      values[0],
		PreviousStock: values[1],
		NewStock:      values[2],
		Reason:        m.Reason,
		Notes:         m.Notes,
		PerformedBy:   m.PerformedBy,
		RecipeID:      recipeID,
		CreatedAt:     m.CreatedAt,
	}, nil
}

// ==================== Recipe models ====================

type recipeModel struct {
	grove.BaseModel `grove:"table:larder_recipes"`

	ID           string    `grove:"id,pk"`
	Name         string    `grove:"name"`
	Description  string    `grove:"description"`
	Servings     int       `grove:"servings"`
	Instructions string    `grove:"instructions"`
	SellingPrice *string   `grove:"selling_price"`
	CreatedAt    time.Time `grove:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"`
}

func toRecipeModel(r *recipe.Recipe) *recipeModel {
	return &recipeModel{
		ID:           r.ID.String(),
		Name:         r.Name,
		Description:  r.Description,
		Servings:     r.Servings,
		Instructions: r.Instructions,
		SellingPrice: optionalText(r.SellingPrice),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func fromRecipeModel(m *recipeModel) (*recipe.Recipe, error) {
	recipeID, err := id.ParseRecipeID(m.ID)
	if err != nil {
		return nil, err
	}
	price, err := optionalDecimal(m.SellingPrice)
	if err != nil {
		return nil, err
	}

	return &recipe.Recipe{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
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

	ID           string    `grove:"id,pk"`
	RecipeID     string    `grove:"recipe_id"`
	IngredientID string    `grove:"ingredient_id"`
	Quantity     string    `grove:"quantity"`
	Notes        string    `grove:"notes"`
	CreatedAt    time.Time `grove:"created_at"`
}

func toLineModel(l *recipe.Line) *lineModel {
	return &lineModel{
		ID:           l.ID.String(),
		RecipeID:     l.RecipeID.String(),
		IngredientID: l.IngredientID.String(),
		Quantity:     l.Quantity.String(),
		Notes:        l.Notes,
		CreatedAt:    l.CreatedAt,
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
	qty, err := decimal.NewFromString(m.Quantity)
	if err != nil {
		return recipe.Line{}, err
	}

	return recipe.Line{
		ID:           lineID,
		RecipeID:     recipeID,
		IngredientID: ingredientID,
		Quantity:     qty,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
	}, nil
}

// ==================== Helpers ====================

func optionalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func optionalDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil //nolint:nilnil // NULL column
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
