// Package plugin provides an extensible plugin system for larder.
// Plugins hook into ingredient, ledger, recipe and production events.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/larder/costing"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/recipe"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. l is the *larder.Larder.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Ingredient hooks
// ──────────────────────────────────────────────────

// OnIngredientCreated is called after an ingredient is persisted.
type OnIngredientCreated interface {
	Plugin
	OnIngredientCreated(ctx context.Context, i *ingredient.Ingredient) error
}

// OnIngredientUpdated is called after an ingredient's descriptive fields change.
type OnIngredientUpdated interface {
	Plugin
	OnIngredientUpdated(ctx context.Context, before, after *ingredient.Ingredient) error
}

// OnIngredientDeleted is called after an ingredient is removed.
type OnIngredientDeleted interface {
	Plugin
	OnIngredientDeleted(ctx context.Context, ingredientID string) error
}

// OnLowStock is called when an ingredient is found at or below its minimum,
// either right after a movement or by the periodic scan.
type OnLowStock interface {
	Plugin
	OnLowStock(ctx context.Context, i *ingredient.Ingredient) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnStockRecorded is called after a movement and its stock update commit.
type OnStockRecorded interface {
	Plugin
	OnStockRecorded(ctx context.Context, m *movement.Movement) error
}

// ──────────────────────────────────────────────────
// Recipe hooks
// ──────────────────────────────────────────────────

// OnRecipeCreated is called after a recipe is persisted.
type OnRecipeCreated interface {
	Plugin
	OnRecipeCreated(ctx context.Context, r *recipe.Recipe) error
}

// OnRecipeUpdated is called after a recipe header or its BOM changes.
type OnRecipeUpdated interface {
	Plugin
	OnRecipeUpdated(ctx context.Context, r *recipe.Recipe) error
}

// OnRecipeDeleted is called after a recipe and its lines are removed.
type OnRecipeDeleted interface {
	Plugin
	OnRecipeDeleted(ctx context.Context, recipeID string) error
}

// ──────────────────────────────────────────────────
// Production and costing hooks
// ──────────────────────────────────────────────────

// OnProductionCompleted is called when every BOM line of a production run
// has been consumed.
type OnProductionCompleted interface {
	Plugin
	OnProductionCompleted(ctx context.Context, r *recipe.Recipe, quantity int, movements []*movement.Movement) error
}

// OnProductionFailed is called when a production run stops partway.
// committed holds the movements that were already recorded.
type OnProductionFailed interface {
	Plugin
	OnProductionFailed(ctx context.Context, r *recipe.Recipe, quantity int, committed []*movement.Movement, err error) error
}

// OnKPIComputed is called after a recipe KPI is derived.
type OnKPIComputed interface {
	Plugin
	OnKPIComputed(ctx context.Context, kpi *costing.KPI, elapsed time.Duration) error
}
