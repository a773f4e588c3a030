package larder

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// IngredientUpdate carries the descriptive fields of an ingredient. Stock is
// not part of it.
type IngredientUpdate struct {
	Name         string           `json:"name" validate:"required"`
	Description  string           `json:"description"`
	Unit         string           `json:"unit" validate:"required"`
	UnitCost     decimal.Decimal  `json:"unit_cost"`
	MinimumStock *decimal.Decimal `json:"minimum_stock"`
	Supplier     string           `json:"supplier"`
}

// RecordMovementRequest is the external form of a stock movement. The
// movement type is matched case-insensitively.
type RecordMovementRequest struct {
	IngredientID    string          `json:"ingredient_id" validate:"required"`
	MovementType    string          `json:"movement_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	Reason          string          `json:"reason" validate:"required"`
	Notes           string          `json:"notes"`
	PerformedBy     string          `json:"performed_by" validate:"required"`
	RelatedRecipeID string          `json:"related_recipe_id"`
}

// RecipeRequest carries the descriptive fields of a recipe and, on create,
// optional BOM lines.
type RecipeRequest struct {
	Name         string           `json:"name" validate:"required"`
	Description  string           `json:"description"`
	Servings     int              `json:"servings"`
	Instructions string           `json:"instructions"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
	Lines        []AddLineRequest `json:"lines" validate:"dive"`
}

// AddLineRequest adds one BOM line to a recipe.
type AddLineRequest struct {
	IngredientID string          `json:"ingredient_id" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	Notes        string          `json:"notes"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs tag validation on v and converts failures into a
// MultiError of ValidationErrors.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var errs MultiError
	for _, fe := range fieldErrs {
		errs.Add(ValidationError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	return errs
}

func validationMessage(fe validator.FieldError) string {
	if fe.Tag() == "required" {
		return "is required"
	}
	return "failed " + fe.Tag() + " check"
}

// requireText reports a blank required field.
func requireText(errs *MultiError, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs.Add(ValidationError{Field: field, Message: "is required"})
	}
}
