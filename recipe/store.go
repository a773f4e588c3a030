package recipe

import (
	"context"

	"github.com/xraph/larder/id"
)

// Store persists recipes together with their lines. Reads are eager: every
// returned recipe carries its lines in insertion order with each line's
// ingredient resolved.
type Store interface {
	// CreateRecipe inserts the recipe header and any lines it carries.
	CreateRecipe(ctx context.Context, r *Recipe) error
	GetRecipe(ctx context.Context, recipeID id.RecipeID) (*Recipe, error)
	// ListRecipes returns all recipes in creation order.
	ListRecipes(ctx context.Context) ([]*Recipe, error)
	// UpdateRecipe replaces the descriptive fields; lines are untouched.
	UpdateRecipe(ctx context.Context, r *Recipe) error
	// DeleteRecipe removes the recipe and all of its lines.
	DeleteRecipe(ctx context.Context, recipeID id.RecipeID) error
	AddRecipeLine(ctx context.Context, l *Line) error
	// RemoveRecipeLines deletes every line of the recipe that references
	// the ingredient and reports how many were removed.
	RemoveRecipeLines(ctx context.Context, recipeID id.RecipeID, ingredientID id.IngredientID) (int64, error)
}
