package mongo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xraph/grove"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/recipe"
	"github.com/xraph/larder/types"
)

// Decimal values are stored as BSON Decimal128 so $inc on stock stays
// exact.

// ==================== Ingredient models ====================

type ingredientModel struct {
	grove.BaseModel `grove:"table:larder_ingredients"`

	ID           string           `grove:"id,pk"         bson:"_id"`
	Name         string           `grove:"name"          bson:"name"`
	Description  string           `grove:"description"   bson:"description"`
	Unit         string           `grove:"unit"          bson:"unit"`
	UnitCost     bson.Decimal128  `grove:"unit_cost"     bson:"unit_cost"`
	CurrentStock bson.Decimal128  `grove:"current_stock" bson:"current_stock"`
	MinimumStock *bson.Decimal128 `grove:"minimum_stock" bson:"minimum_stock"`
	Supplier     string           `grove:"supplier"      bson:"supplier"`
	CreatedAt    time.Time        `grove:"created_at"    bson:"created_at"`
	UpdatedAt    time.Time        `grove:"updated_at"    bson:"updated_at"`
}

func toIngredientModel(i *ingredient.Ingredient) (*ingredientModel, error) {
	unitCost, err := toDecimal128(i.UnitCost)
	if err != nil {
		return nil, err
	}
	stock, err := toDecimal128(i.CurrentStock)
	if err != nil {
		return nil, err
	}
	minimum, err := toOptionalDecimal128(i.MinimumStock)
	if err != nil {
		return nil, err
	}

	return &ingredientModel{
		ID:           i.ID.String(),
		Name:         i.Name,
		Description:  i.Description,
		Unit:         i.Unit,
		UnitCost:     unitCost,
		CurrentStock: stock,
		MinimumStock: minimum,
		Supplier:     i.Supplier,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}, nil
}

func fromIngredientModel(m *ingredientModel) (*ingredient.Ingredient, error) {
	ingredientID, err := id.ParseIngredientID(m.ID)
	if err != nil {
		return nil, err
	}
	unitCost, err := fromDecimal128(m.UnitCost)
	if err != nil {
		return nil, err
	}
	stock, err := fromDecimal128(m.CurrentStock)
	if err != nil {
		return nil, err
	}
	minimum, err := fromOptionalDecimal128(m.MinimumStock)
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

	ID            string          `grove:"id,pk"             bson:"_id"`
	IngredientID  string          `grove:"ingredient_id"     bson:"ingredient_id"`
	Kind          string          `grove:"movement_type"     bson:"movement_type"`
	Quantity      bson.Decimal128 `grove:"quantity"          bson:"quantity"`
	PreviousStock bson.Decimal128 `grove:"previous_stock"    bson:"previous_stock"`
	NewStock      bson.Decimal128 `grove:"new_stock"         bson:"new_stock"`
	Reason        string          `grove:"reason"            bson:"reason"`
	Notes         string          `grove:"notes"             bson:"notes"`
	PerformedBy   string          `grove:"performed_by"      bson:"performed_by"`
	RecipeID      string          `grove:"related_recipe_id" bson:"related_recipe_id"`
	CreatedAt     time.Time       `grove:"created_at"        bson:"created_at"`
}

func toMovementModel(m *movement.Movement) (*movementModel, error) {
	var values [3]bson.Decimal128
	for n, d := range []decimal.Decimal{m.Quantity, m.PreviousStock, m.NewStock} {
		v, err := toDecimal128(d)
		if err != nil {
			return nil, err
		}
		values[n] = v
	}

	recipeID := ""
	if !m.RecipeID.IsNil() {
		recipeID = m.RecipeID.String()
	}

	return &movementModel{
		ID:            m.ID.String(),
		IngredientID:  m.IngredientID.String(),
		Kind:          string(m.Kind),
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
	for n, d := range []bson.Decimal128{m.Quantity, m.PreviousStock, m.NewStock} {
		if values[n], err = fromDecimal128(d); err != nil {
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

// Lines are embedded in their recipe document, so deleting the recipe
// removes them with it.
type recipeModel struct {
	grove.BaseModel `grove:"table:larder_recipes"`

	ID           string           `grove:"id,pk"         bson:"_id"`
	Name         string           `grove:"name"          bson:"name"`
	Description  string           `grove:"description"   bson:"description"`
	Servings     int              `grove:"servings"      bson:"servings"`
	Instructions string           `grove:"instructions"  bson:"instructions"`
	SellingPrice *bson.Decimal128 `grove:"selling_price" bson:"selling_price"`
	Lines        []lineModel      `grove:"lines"         bson:"lines"`
	CreatedAt    time.Time        `grove:"created_at"    bson:"created_at"`
	UpdatedAt    time.Time        `grove:"updated_at"    bson:"updated_at"`
}

type lineModel struct {
	ID           string          `bson:"id"`
	IngredientID string          `bson:"ingredient_id"`
	Quantity     bson.Decimal128 `bson:"quantity"`
	Notes        string          `bson:"notes"`
	CreatedAt    time.Time       `bson:"created_at"`
}

func toRecipeModel(r *recipe.Recipe) (*recipeModel, error) {
	price, err := toOptionalDecimal128(r.SellingPrice)
	if err != nil {
		return nil, err
	}

	lines := make([]lineModel, 0, len(r.Lines))
	for i := range r.Lines {
		lm, err := toLineModel(&r.Lines[i])
		if err != nil {
			return nil, err
		}
		lines = append(lines, *lm)
	}

	return &recipeModel{
		ID:           r.ID.String(),
		Name:         r.Name,
		Description:  r.Description,
		Servings:     r.Servings,
		Instructions: r.Instructions,
		SellingPrice: price,
		Lines:        lines,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

func fromRecipeModel(m *recipeModel) (*recipe.Recipe, error) {
	recipeID, err := id.ParseRecipeID(m.ID)
	if err != nil {
		return nil, err
	}
	price, err := fromOptionalDecimal128(m.SellingPrice)
	if err != nil {
		return nil, err
	}

	lines := make([]recipe.Line, 0, len(m.Lines))
	for i := range m.Lines {
		line, err := fromLineModel(recipeID, &m.Lines[i])
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
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
		Lines:        lines,
	}, nil
}

func toLineModel(l *recipe.Line) (*lineModel, error) {
	qty, err := toDecimal128(l.Quantity)
	if err != nil {
		return nil, err
	}
	return &lineModel{
		ID:           l.ID.String(),
		IngredientID: l.IngredientID.String(),
		Quantity:     qty,
		Notes:        l.Notes,
		CreatedAt:    l.CreatedAt,
	}, nil
}

func fromLineModel(recipeID id.RecipeID, m *lineModel) (recipe.Line, error) {
	lineID, err := id.ParseRecipeLineID(m.ID)
	if err != nil {
		return recipe.Line{}, err
	}
	ingredientID, err := id.ParseIngredientID(m.IngredientID)
	if err != nil {
		return recipe.Line{}, err
	}
	qty, err := fromDecimal128(m.Quantity)
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

// ==================== Decimal128 helpers ====================

func toDecimal128(d decimal.Decimal) (bson.Decimal128, error) {
	v, err := bson.ParseDecimal128(d.String())
	if err != nil {
		return bson.Decimal128{}, fmt.Errorf("larder/mongo: encode decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v bson.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("larder/mongo: decode decimal %s: %w", v, err)
	}
	return d, nil
}

func toOptionalDecimal128(d *decimal.Decimal) (*bson.Decimal128, error) {
	if d == nil {
		return nil, nil //nolint:nilnil // absent value
	}
	v, err := toDecimal128(*d)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func fromOptionalDecimal128(v *bson.Decimal128) (*decimal.Decimal, error) {
	if v == nil {
		return nil, nil //nolint:nilnil // absent value
	}
	d, err := fromDecimal128(*v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
