package ingredient

import (
	"context"

	"github.com/xraph/larder/id"
)

// Store persists ingredients. Stock levels are never written here; they
// change only inside movement.Store.RecordMovement.
type Store interface {
	CreateIngredient(ctx context.Context, i *Ingredient) error
	GetIngredient(ctx context.Context, ingredientID id.IngredientID) (*Ingredient, error)
	GetIngredientByName(ctx context.Context, name string) (*Ingredient, error)
	ListIngredients(ctx context.Context, opts ListOpts) ([]*Ingredient, error)
	// UpdateIngredient replaces descriptive fields and unit cost, leaving
	// CurrentStock untouched.
	UpdateIngredient(ctx context.Context, i *Ingredient) error
	DeleteIngredient(ctx context.Context, ingredientID id.IngredientID) error
	// ListLowStock returns ingredients with a minimum set whose stock is at
	// or below it.
	ListLowStock(ctx context.Context) ([]*Ingredient, error)
}

// ListOpts filters ingredient listings. Results are ordered by name.
type ListOpts struct {
	// Search matches a case-insensitive substring of the name.
	Search string
	Limit  int
	Offset int
}
