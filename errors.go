package larder

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound        = errors.New("larder: not found")
	ErrConflict        = errors.New("larder: conflict")
	ErrInvalidArgument = errors.New("larder: invalid argument")
	ErrValidation      = errors.New("larder: validation failed")

	// Ingredient errors
	ErrIngredientNotFound  = errors.New("larder: ingredient not found")
	ErrDuplicateIngredient = errors.New("larder: ingredient name already exists")
	ErrInvalidUnitCost     = errors.New("larder: unit cost must be positive")

	// Ledger errors
	ErrInvalidQuantity     = errors.New("larder: quantity must be positive")
	ErrInvalidMovementKind = errors.New("larder: invalid movement kind")

	// Recipe errors
	ErrRecipeNotFound            = errors.New("larder: recipe not found")
	ErrInvalidServings           = errors.New("larder: servings must be positive")
	ErrInvalidPrice              = errors.New("larder: selling price must not be negative")
	ErrInvalidProductionQuantity = errors.New("larder: produced quantity must be positive")

	// Store errors
	ErrStoreClosed = errors.New("larder: store is closed")
)

// ValidationError represents a missing or malformed required field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("larder: validation failed for %s: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrValidation.
func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "larder: no errors"
	case 1:
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("larder: %d errors occurred: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error reports an unknown ingredient or recipe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrIngredientNotFound) ||
		errors.Is(err, ErrRecipeNotFound)
}

// IsConflict returns true if the error reports a duplicate unique value.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrDuplicateIngredient)
}

// IsInvalidArgument returns true if the error reports an out-of-range or
// malformed argument.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidMovementKind) ||
		errors.Is(err, ErrInvalidServings) ||
		errors.Is(err, ErrInvalidUnitCost) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidProductionQuantity)
}

// IsValidation returns true if the error reports a missing required field.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
