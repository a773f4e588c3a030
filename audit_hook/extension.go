// Package audithook bridges larder lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/plugin"
	"github.com/xraph/larder/recipe"
	"github.com/xraph/larder/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnIngredientCreated   = (*Extension)(nil)
	_ plugin.OnIngredientUpdated   = (*Extension)(nil)
	_ plugin.OnIngredientDeleted   = (*Extension)(nil)
	_ plugin.OnLowStock            = (*Extension)(nil)
	_ plugin.OnStockRecorded       = (*Extension)(nil)
	_ plugin.OnRecipeCreated       = (*Extension)(nil)
	_ plugin.OnRecipeUpdated       = (*Extension)(nil)
	_ plugin.OnRecipeDeleted       = (*Extension)(nil)
	_ plugin.OnProductionCompleted = (*Extension)(nil)
	_ plugin.OnProductionFailed    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges larder lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Ingredient lifecycle hooks
// ──────────────────────────────────────────────────

// OnIngredientCreated implements plugin.OnIngredientCreated.
func (e *Extension) OnIngredientCreated(ctx context.Context, i *ingredient.Ingredient) error {
	return e.record(ctx, ActionIngredientCreated, SeverityInfo, OutcomeSuccess,
		ResourceIngredient, i.ID.String(), CategoryInventory, nil,
		"name", i.Name,
		"unit", i.Unit,
		"unit_cost", types.FormatMoney(i.UnitCost),
	)
}

// OnIngredientUpdated implements plugin.OnIngredientUpdated.
func (e *Extension) OnIngredientUpdated(ctx context.Context, before, after *ingredient.Ingredient) error {
	kv := []any{"name", after.Name}
	if !before.UnitCost.Equal(after.UnitCost) {
		kv = append(kv,
			"previous_unit_cost", types.FormatMoney(before.UnitCost),
			"unit_cost", types.FormatMoney(after.UnitCost),
		)
	}
	if before.Name != after.Name {
		kv = append(kv, "previous_name", before.Name)
	}
	return e.record(ctx, ActionIngredientUpdated, SeverityInfo, OutcomeSuccess,
		ResourceIngredient, after.ID.String(), CategoryInventory, nil,
		kv...,
	)
}

// OnIngredientDeleted implements plugin.OnIngredientDeleted.
func (e *Extension) OnIngredientDeleted(ctx context.Context, ingredientID string) error {
	return e.record(ctx, ActionIngredientDeleted, SeverityWarning, OutcomeSuccess,
		ResourceIngredient, ingredientID, CategoryInventory, nil,
		"ingredient_id", ingredientID,
	)
}

// OnLowStock implements plugin.OnLowStock.
func (e *Extension) OnLowStock(ctx context.Context, i *ingredient.Ingredient) error {
	kv := []any{
		"name", i.Name,
		"current_stock", types.FormatQuantity(i.CurrentStock),
	}
	if i.MinimumStock != nil {
		kv = append(kv, "minimum_stock", types.FormatQuantity(*i.MinimumStock))
	}
	return e.record(ctx, ActionLowStock, SeverityWarning, OutcomeSuccess,
		ResourceIngredient, i.ID.String(), CategoryInventory, nil,
		kv...,
	)
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnStockRecorded implements plugin.OnStockRecorded.
func (e *Extension) OnStockRecorded(ctx context.Context, m *movement.Movement) error {
	return e.record(ctx, ActionStockRecorded, SeverityInfo, OutcomeSuccess,
		ResourceMovement, m.ID.String(), CategoryInventory, nil,
		"ingredient_id", m.IngredientID.String(),
		"movement_type", string(m.Kind),
		"quantity", types.FormatQuantity(m.Quantity),
		"previous_stock", types.FormatQuantity(m.PreviousStock),
		"new_stock", types.FormatQuantity(m.NewStock),
		"performed_by", m.PerformedBy,
	)
}

// ──────────────────────────────────────────────────
// Recipe lifecycle hooks
// ──────────────────────────────────────────────────

// OnRecipeCreated implements plugin.OnRecipeCreated.
func (e *Extension) OnRecipeCreated(ctx context.Context, r *recipe.Recipe) error {
	return e.record(ctx, ActionRecipeCreated, SeverityInfo, OutcomeSuccess,
		ResourceRecipe, r.ID.String(), CategoryRecipe, nil,
		"name", r.Name,
		"servings", r.Servings,
		"lines", len(r.Lines),
	)
}

// OnRecipeUpdated implements plugin.OnRecipeUpdated.
func (e *Extension) OnRecipeUpdated(ctx context.Context, r *recipe.Recipe) error {
	return e.record(ctx, ActionRecipeUpdated, SeverityInfo, OutcomeSuccess,
		ResourceRecipe, r.ID.String(), CategoryRecipe, nil,
		"name", r.Name,
		"lines", len(r.Lines),
	)
}

// OnRecipeDeleted implements plugin.OnRecipeDeleted.
func (e *Extension) OnRecipeDeleted(ctx context.Context, recipeID string) error {
	return e.record(ctx, ActionRecipeDeleted, SeverityWarning, OutcomeSuccess,
		ResourceRecipe, recipeID, CategoryRecipe, nil,
		"recipe_id", recipeID,
	)
}

// ──────────────────────────────────────────────────
// Production hooks
// ──────────────────────────────────────────────────

// OnProductionCompleted implements plugin.OnProductionCompleted.
func (e *Extension) OnProductionCompleted(ctx context.Context, r *recipe.Recipe, quantity int, movements []*movement.Movement) error {
	return e.record(ctx, ActionProductionCompleted, SeverityInfo, OutcomeSuccess,
		ResourceRecipe, r.ID.String(), CategoryProduction, nil,
		"name", r.Name,
		"quantity", quantity,
		"movements", len(movements),
	)
}

// OnProductionFailed implements plugin.OnProductionFailed. A run that
// committed some lines before failing is recorded as partial.
func (e *Extension) OnProductionFailed(ctx context.Context, r *recipe.Recipe, quantity int, committed []*movement.Movement, err error) error {
	outcome := OutcomeFailure
	if len(committed) > 0 {
		outcome = OutcomePartial
	}
	return e.record(ctx, ActionProductionFailed, SeverityError, outcome,
		ResourceRecipe, r.ID.String(), CategoryProduction, err,
		"name", r.Name,
		"quantity", quantity,
		"committed", len(committed),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
