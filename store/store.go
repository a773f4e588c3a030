// Package store declares the unified persistence interface of larder.
package store

import (
	"context"

	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/recipe"
)

// Store is the unified storage interface for all larder entities. Method
// names carry their entity so the per-aggregate interfaces embed cleanly.
type Store interface {
	ingredient.Store
	movement.Store
	recipe.Store

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
