package larder_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder"
	"github.com/xraph/larder/costing"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/recipe"
	"github.com/xraph/larder/store/memory"
)

var quiet = slog.New(slog.DiscardHandler)

func newEngine(t *testing.T, opts ...larder.Option) *larder.Larder {
	t.Helper()

	l := larder.New(memory.New(), append([]larder.Option{larder.WithLogger(quiet)}, opts...)...)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = l.Stop() })
	return l
}

func dec(s string) decimal.Decimal { return larder.Amount(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// mustIngredient creates an ingredient with an opening stock.
func mustIngredient(t *testing.T, l *larder.Larder, name, unitCost, stock string, minimum *decimal.Decimal) *ingredient.Ingredient {
	t.Helper()

	i := &ingredient.Ingredient{
		Name:         name,
		Unit:         "kg",
		UnitCost:     dec(unitCost),
		CurrentStock: dec(stock),
		MinimumStock: minimum,
	}
	if err := l.CreateIngredient(context.Background(), i); err != nil {
		t.Fatalf("CreateIngredient(%s) failed: %v", name, err)
	}
	return i
}

func mustRecipe(t *testing.T, l *larder.Larder, name string, servings int, price *decimal.Decimal, lines ...larder.AddLineRequest) *recipe.Recipe {
	t.Helper()

	r, err := l.CreateRecipe(context.Background(), larder.RecipeRequest{
		Name:         name,
		Servings:     servings,
		SellingPrice: price,
		Lines:        lines,
	})
	if err != nil {
		t.Fatalf("CreateRecipe(%s) failed: %v", name, err)
	}
	return r
}

func lineOf(i *ingredient.Ingredient, qty string) larder.AddLineRequest {
	return larder.AddLineRequest{IngredientID: i.ID.String(), Quantity: dec(qty)}
}

func stockOf(t *testing.T, l *larder.Larder, i *ingredient.Ingredient) decimal.Decimal {
	t.Helper()

	got, err := l.GetIngredient(context.Background(), i.ID)
	if err != nil {
		t.Fatalf("GetIngredient failed: %v", err)
	}
	return got.CurrentStock
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recorder is a plugin that remembers the events it receives.
type recorder struct {
	mu         sync.Mutex
	recorded   []*movement.Movement
	lowStock   []string
	completed  int
	failed     []error
	kpis       []*costing.KPI
	created    []string
	deleted    []string
	shutdowns  int
	initCalled bool
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnInit(_ context.Context, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initCalled = true
	return nil
}

func (r *recorder) OnShutdown(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdowns++
	return nil
}

func (r *recorder) OnIngredientCreated(_ context.Context, i *ingredient.Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, i.Name)
	return nil
}

func (r *recorder) OnRecipeDeleted(_ context.Context, recipeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, recipeID)
	return nil
}

func (r *recorder) OnStockRecorded(_ context.Context, m *movement.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded = append(r.recorded, m)
	return nil
}

func (r *recorder) OnLowStock(_ context.Context, i *ingredient.Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lowStock = append(r.lowStock, i.Name)
	return nil
}

func (r *recorder) OnProductionCompleted(_ context.Context, _ *recipe.Recipe, _ int, _ []*movement.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
	return nil
}

func (r *recorder) OnProductionFailed(_ context.Context, _ *recipe.Recipe, _ int, _ []*movement.Movement, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err)
	return nil
}

func (r *recorder) OnKPIComputed(_ context.Context, kpi *costing.KPI, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kpis = append(r.kpis, kpi)
	return nil
}

func (r *recorder) lowStockNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lowStock))
	copy(out, r.lowStock)
	return out
}
