package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/larder/costing"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/recipe"
)

// DefaultTimeout bounds every hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook interfaces are discovered once at registration and cached per type.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onIngredientCreated   []OnIngredientCreated
	onIngredientUpdated   []OnIngredientUpdated
	onIngredientDeleted   []OnIngredientDeleted
	onLowStock            []OnLowStock
	onStockRecorded       []OnStockRecorded
	onRecipeCreated       []OnRecipeCreated
	onRecipeUpdated       []OnRecipeUpdated
	onRecipeDeleted       []OnRecipeDeleted
	onProductionCompleted []OnProductionCompleted
	onProductionFailed    []OnProductionFailed
	onKPIComputed         []OnKPIComputed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnIngredientCreated); ok {
		r.onIngredientCreated = append(r.onIngredientCreated, v)
		hooks = append(hooks, "OnIngredientCreated")
	}
	if v, ok := p.(OnIngredientUpdated); ok {
		r.onIngredientUpdated = append(r.onIngredientUpdated, v)
		hooks = append(hooks, "OnIngredientUpdated")
	}
	if v, ok := p.(OnIngredientDeleted); ok {
		r.onIngredientDeleted = append(r.onIngredientDeleted, v)
		hooks = append(hooks, "OnIngredientDeleted")
	}
	if v, ok := p.(OnLowStock); ok {
		r.onLowStock = append(r.onLowStock, v)
		hooks = append(hooks, "OnLowStock")
	}
	if v, ok := p.(OnStockRecorded); ok {
		r.onStockRecorded = append(r.onStockRecorded, v)
		hooks = append(hooks, "OnStockRecorded")
	}
	if v, ok := p.(OnRecipeCreated); ok {
		r.onRecipeCreated = append(r.onRecipeCreated, v)
		hooks = append(hooks, "OnRecipeCreated")
	}
	if v, ok := p.(OnRecipeUpdated); ok {
		r.onRecipeUpdated = append(r.onRecipeUpdated, v)
		hooks = append(hooks, "OnRecipeUpdated")
	}
	if v, ok := p.(OnRecipeDeleted); ok {
		r.onRecipeDeleted = append(r.onRecipeDeleted, v)
		hooks = append(hooks, "OnRecipeDeleted")
	}
	if v, ok := p.(OnProductionCompleted); ok {
		r.onProductionCompleted = append(r.onProductionCompleted, v)
		hooks = append(hooks, "OnProductionCompleted")
	}
	if v, ok := p.(OnProductionFailed); ok {
		r.onProductionFailed = append(r.onProductionFailed, v)
		hooks = append(hooks, "OnProductionFailed")
	}
	if v, ok := p.(OnKPIComputed); ok {
		r.onKPIComputed = append(r.onKPIComputed, v)
		hooks = append(hooks, "OnKPIComputed")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, l any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	dispatch(ctx, r, "OnInit", plugins, func(p OnInit) error {
		return p.OnInit(ctx, l)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	dispatch(ctx, r, "OnShutdown", plugins, func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitIngredientCreated emits an ingredient created event.
func (r *Registry) EmitIngredientCreated(ctx context.Context, i *ingredient.Ingredient) {
	r.mu.RLock()
	plugins := r.onIngredientCreated
	r.mu.RUnlock()

	dispatch(ctx, r, "OnIngredientCreated", plugins, func(p OnIngredientCreated) error {
		return p.OnIngredientCreated(ctx, i)
	})
}

// EmitIngredientUpdated emits an ingredient updated event.
func (r *Registry) EmitIngredientUpdated(ctx context.Context, before, after *ingredient.Ingredient) {
	r.mu.RLock()
	plugins := r.onIngredientUpdated
	r.mu.RUnlock()

	dispatch(ctx, r, "OnIngredientUpdated", plugins, func(p OnIngredientUpdated) error {
		return p.OnIngredientUpdated(ctx, before, after)
	})
}

// EmitIngredientDeleted emits an ingredient deleted event.
func (r *Registry) EmitIngredientDeleted(ctx context.Context, ingredientID string) {
	r.mu.RLock()
	plugins := r.onIngredientDeleted
	r.mu.RUnlock()

	dispatch(ctx, r, "OnIngredientDeleted", plugins, func(p OnIngredientDeleted) error {
		return p.OnIngredientDeleted(ctx, ingredientID)
	})
}

// EmitLowStock emits a low stock event.
func (r *Registry) EmitLowStock(ctx context.Context, i *ingredient.Ingredient) {
	r.mu.RLock()
	plugins := r.onLowStock
	r.mu.RUnlock()

	dispatch(ctx, r, "OnLowStock", plugins, func(p OnLowStock) error {
		return p.OnLowStock(ctx, i)
	})
}

// EmitStockRecorded emits a stock movement recorded event.
func (r *Registry) EmitStockRecorded(ctx context.Context, m *movement.Movement) {
	r.mu.RLock()
	plugins := r.onStockRecorded
	r.mu.RUnlock()

	dispatch(ctx, r, "OnStockRecorded", plugins, func(p OnStockRecorded) error {
		return p.OnStockRecorded(ctx, m)
	})
}

// EmitRecipeCreated emits a recipe created event.
func (r *Registry) EmitRecipeCreated(ctx context.Context, rcp *recipe.Recipe) {
	r.mu.RLock()
	plugins := r.onRecipeCreated
	r.mu.RUnlock()

	dispatch(ctx, r, "OnRecipeCreated", plugins, func(p OnRecipeCreated) error {
		return p.OnRecipeCreated(ctx, rcp)
	})
}

// EmitRecipeUpdated emits a recipe updated event.
func (r *Registry) EmitRecipeUpdated(ctx context.Context, rcp *recipe.Recipe) {
	r.mu.RLock()
	plugins := r.onRecipeUpdated
	r.mu.RUnlock()

	dispatch(ctx, r, "OnRecipeUpdated", plugins, func(p OnRecipeUpdated) error {
		return p.OnRecipeUpdated(ctx, rcp)
	})
}

// EmitRecipeDeleted emits a recipe deleted event.
func (r *Registry) EmitRecipeDeleted(ctx context.Context, recipeID string) {
	r.mu.RLock()
	plugins := r.onRecipeDeleted
	r.mu.RUnlock()

	dispatch(ctx, r, "OnRecipeDeleted", plugins, func(p OnRecipeDeleted) error {
		return p.OnRecipeDeleted(ctx, recipeID)
	})
}

// EmitProductionCompleted emits a production completed event.
func (r *Registry) EmitProductionCompleted(ctx context.Context, rcp *recipe.Recipe, quantity int, movements []*movement.Movement) {
	r.mu.RLock()
	plugins := r.onProductionCompleted
	r.mu.RUnlock()

	dispatch(ctx, r, "OnProductionCompleted", plugins, func(p OnProductionCompleted) error {
		return p.OnProductionCompleted(ctx, rcp, quantity, movements)
	})
}

// EmitProductionFailed emits a production failed event.
func (r *Registry) EmitProductionFailed(ctx context.Context, rcp *recipe.Recipe, quantity int, committed []*movement.Movement, cause error) {
	r.mu.RLock()
	plugins := r.onProductionFailed
	r.mu.RUnlock()

	dispatch(ctx, r, "OnProductionFailed", plugins, func(p OnProductionFailed) error {
		return p.OnProductionFailed(ctx, rcp, quantity, committed, cause)
	})
}

// EmitKPIComputed emits a KPI computed event.
func (r *Registry) EmitKPIComputed(ctx context.Context, kpi *costing.KPI, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onKPIComputed
	r.mu.RUnlock()

	dispatch(ctx, r, "OnKPIComputed", plugins, func(p OnKPIComputed) error {
		return p.OnKPIComputed(ctx, kpi, elapsed)
	})
}

// dispatch calls fn for each plugin, logging failures. Hook errors never
// propagate to the caller.
func dispatch[T Plugin](ctx context.Context, r *Registry, hook string, plugins []T, fn func(T) error) {
	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return fn(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins must never block the ledger.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
