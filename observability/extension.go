// Package observability provides a metrics extension for larder that records
// lifecycle event counts via a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/larder/costing"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/plugin"
	"github.com/xraph/larder/recipe"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnIngredientCreated   = (*MetricsExtension)(nil)
	_ plugin.OnIngredientUpdated   = (*MetricsExtension)(nil)
	_ plugin.OnIngredientDeleted   = (*MetricsExtension)(nil)
	_ plugin.OnLowStock            = (*MetricsExtension)(nil)
	_ plugin.OnStockRecorded       = (*MetricsExtension)(nil)
	_ plugin.OnRecipeCreated       = (*MetricsExtension)(nil)
	_ plugin.OnRecipeUpdated       = (*MetricsExtension)(nil)
	_ plugin.OnRecipeDeleted       = (*MetricsExtension)(nil)
	_ plugin.OnProductionCompleted = (*MetricsExtension)(nil)
	_ plugin.OnProductionFailed    = (*MetricsExtension)(nil)
	_ plugin.OnKPIComputed         = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a larder plugin to automatically track inventory metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Ingredient metrics
	IngredientCreated Counter
	IngredientUpdated Counter
	IngredientDeleted Counter
	LowStockAlerts    Counter

	// Ledger metrics, one counter per movement kind
	Movements        map[movement.Kind]Counter
	MovementQuantity Histogram

	// Recipe metrics
	RecipeCreated Counter
	RecipeUpdated Counter
	RecipeDeleted Counter

	// Production metrics
	ProductionCompleted Counter
	ProductionFailed    Counter
	ProductionBatches   Counter

	// Costing metrics
	KPIComputed     Counter
	KPILatency      Histogram
	FoodCostPercent Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	movements := make(map[movement.Kind]Counter, len(movement.Kinds()))
	for _, k := range movement.Kinds() {
		movements[k] = factory.Counter("larder.stock." + kindMetric(k))
	}

	return &MetricsExtension{
		factory: factory,

		// Ingredient metrics
		IngredientCreated: factory.Counter("larder.ingredient.created"),
		IngredientUpdated: factory.Counter("larder.ingredient.updated"),
		IngredientDeleted: factory.Counter("larder.ingredient.deleted"),
		LowStockAlerts:    factory.Counter("larder.ingredient.low_stock"),

		// Ledger metrics
		Movements:        movements,
		MovementQuantity: factory.Histogram("larder.stock.quantity"),

		// Recipe metrics
		RecipeCreated: factory.Counter("larder.recipe.created"),
		RecipeUpdated: factory.Counter("larder.recipe.updated"),
		RecipeDeleted: factory.Counter("larder.recipe.deleted"),

		// Production metrics
		ProductionCompleted: factory.Counter("larder.production.completed"),
		ProductionFailed:    factory.Counter("larder.production.failed"),
		ProductionBatches:   factory.Counter("larder.production.batches"),

		// Costing metrics
		KPIComputed:     factory.Counter("larder.costing.computed"),
		KPILatency:      factory.Histogram("larder.costing.latency_ms"),
		FoodCostPercent: factory.Histogram("larder.costing.food_cost_percent"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Ingredient lifecycle hooks
// ──────────────────────────────────────────────────

// OnIngredientCreated implements plugin.OnIngredientCreated.
func (m *MetricsExtension) OnIngredientCreated(_ context.Context, _ *ingredient.Ingredient) error {
	m.IngredientCreated.Inc()
	return nil
}

// OnIngredientUpdated implements plugin.OnIngredientUpdated.
func (m *MetricsExtension) OnIngredientUpdated(_ context.Context, _, _ *ingredient.Ingredient) error {
	m.IngredientUpdated.Inc()
	return nil
}

// OnIngredientDeleted implements plugin.OnIngredientDeleted.
func (m *MetricsExtension) OnIngredientDeleted(_ context.Context, _ string) error {
	m.IngredientDeleted.Inc()
	return nil
}

// OnLowStock implements plugin.OnLowStock.
func (m *MetricsExtension) OnLowStock(_ context.Context, _ *ingredient.Ingredient) error {
	m.LowStockAlerts.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnStockRecorded implements plugin.OnStockRecorded.
func (m *MetricsExtension) OnStockRecorded(_ context.Context, mv *movement.Movement) error {
	if c, ok := m.Movements[mv.Kind]; ok {
		c.Inc()
	}
	m.MovementQuantity.Observe(mv.Quantity.InexactFloat64())
	return nil
}

// ──────────────────────────────────────────────────
// Recipe lifecycle hooks
// ──────────────────────────────────────────────────

// OnRecipeCreated implements plugin.OnRecipeCreated.
func (m *MetricsExtension) OnRecipeCreated(_ context.Context, _ *recipe.Recipe) error {
	m.RecipeCreated.Inc()
	return nil
}

// OnRecipeUpdated implements plugin.OnRecipeUpdated.
func (m *MetricsExtension) OnRecipeUpdated(_ context.Context, _ *recipe.Recipe) error {
	m.RecipeUpdated.Inc()
	return nil
}

// OnRecipeDeleted implements plugin.OnRecipeDeleted.
func (m *MetricsExtension) OnRecipeDeleted(_ context.Context, _ string) error {
	m.RecipeDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Production hooks
// ──────────────────────────────────────────────────

// OnProductionCompleted implements plugin.OnProductionCompleted.
func (m *MetricsExtension) OnProductionCompleted(_ context.Context, _ *recipe.Recipe, quantity int, _ []*movement.Movement) error {
	m.ProductionCompleted.Inc()
	m.ProductionBatches.Add(float64(quantity))
	return nil
}

// OnProductionFailed implements plugin.OnProductionFailed.
func (m *MetricsExtension) OnProductionFailed(_ context.Context, _ *recipe.Recipe, _ int, _ []*movement.Movement, _ error) error {
	m.ProductionFailed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Costing hooks
// ──────────────────────────────────────────────────

// OnKPIComputed implements plugin.OnKPIComputed.
func (m *MetricsExtension) OnKPIComputed(_ context.Context, kpi *costing.KPI, elapsed time.Duration) error {
	m.KPIComputed.Inc()
	m.KPILatency.Observe(float64(elapsed.Microseconds()) / 1000)
	m.FoodCostPercent.Observe(kpi.FoodCostPercentage().InexactFloat64())
	return nil
}

func kindMetric(k movement.Kind) string {
	switch k {
	case movement.KindPurchase:
		return "purchase"
	case movement.KindConsumption:
		return "consumption"
	case movement.KindAdjustment:
		return "adjustment"
	case movement.KindWaste:
		return "waste"
	case movement.KindReturn:
		return "return"
	default:
		return "unknown"
	}
}
