// Package memory provides an in-process store for tests and single-node
// deployments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder"
	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/recipe"
	"github.com/xraph/larder/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps all entities in maps guarded by one RWMutex. Every write,
// including the stock read-modify-write of RecordMovement, runs under the
// write lock, so movements never interleave.
type Store struct {
	mu     sync.RWMutex
	closed bool

	// Ingredient storage
	ingredients map[string]*ingredient.Ingredient

	// Recipe storage; recipeOrder keeps creation order
	recipes     map[string]*recipe.Recipe
	recipeOrder []string

	// Ledger, in append order
	movements []*movement.Movement
}

// New creates an empty memory store.
func New() *Store {
	return &Store{
		ingredients: make(map[string]*ingredient.Ingredient),
		recipes:     make(map[string]*recipe.Recipe),
		movements:   make([]*movement.Movement, 0),
	}
}

// ──────────────────────────────────────────────────
// Ingredient Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateIngredient(_ context.Context, i *ingredient.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return larder.ErrStoreClosed
	}
	if s.nameTaken(i.Name, i.ID) {
		return fmt.Errorf("%w: %s", larder.ErrDuplicateIngredient, i.Name)
	}
	if _, exists := s.ingredients[i.ID.String()]; exists {
		return fmt.Errorf("%w: ingredient %s", larder.ErrConflict, i.ID)
	}

	s.ingredients[i.ID.String()] = cloneIngredient(i)
	return nil
}

func (s *Store) GetIngredient(_ context.Context, ingredientID id.IngredientID) (*ingredient.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i, ok := s.ingredients[ingredientID.String()]; ok {
		return cloneIngredient(i), nil
	}
	return nil, fmt.Errorf("%w: %s", larder.ErrIngredientNotFound, ingredientID)
}

func (s *Store) GetIngredientByName(_ context.Context, name string) (*ingredient.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, i := range s.ingredients {
		if i.Name == name {
			return cloneIngredient(i), nil
		}
	}
	return nil, fmt.Errorf("%w: name %q", larder.ErrIngredientNotFound, name)
}

func (s *Store) ListIngredients(_ context.Context, opts ingredient.ListOpts) ([]*ingredient.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(opts.Search)
	result := make([]*ingredient.Ingredient, 0, len(s.ingredients))
	for _, i := range s.ingredients {
		if search == "" || strings.Contains(strings.ToLower(i.Name), search) {
			result = append(result, cloneIngredient(i))
		}
	}
	sortByName(result)

	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateIngredient(_ context.Context, i *ingredient.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.ingredients[i.ID.String()]
	if !ok {
		return fmt.Errorf("%w: %s", larder.ErrIngredientNotFound, i.ID)
	}
	if s.nameTaken(i.Name, i.ID) {
		return fmt.Errorf("%w: %s", larder.ErrDuplicateIngredient, i.Name)
	}

	updated := cloneIngredient(i)
	updated.CurrentStock = existing.CurrentStock
	updated.CreatedAt = existing.CreatedAt
	s.ingredients[i.ID.String()] = updated
	return nil
}

func (s *Store) DeleteIngredient(_ context.Context, ingredientID id.IngredientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ingredients[ingredientID.String()]; !ok {
		return fmt.Errorf("%w: %s", larder.ErrIngredientNotFound, ingredientID)
	}
	delete(s.ingredients, ingredientID.String())
	return nil
}

func (s *Store) ListLowStock(_ context.Context) ([]*ingredient.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*ingredient.Ingredient, 0)
	for _, i := range s.ingredients {
		if i.IsLowStock() {
			result = append(result, cloneIngredient(i))
		}
	}
	sortByName(result)
	return result, nil
}

func (s *Store) nameTaken(name string, self id.IngredientID) bool {
	for key, i := range s.ingredients {
		if i.Name == name && key != self.String() {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────────
// Movement Store implementation
// ──────────────────────────────────────────────────

func (s *Store) RecordMovement(_ context.Context, m *movement.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return larder.ErrStoreClosed
	}

	prev, next, err := s.adjustStock(m.IngredientID, m)
	if err != nil {
		return err
	}

	m.PreviousStock = prev
	m.NewStock = next
	stored := *m
	s.movements = append(s.movements, &stored)
	return nil
}

// adjustStock applies m's signed delta to the ingredient and returns the
// stock before and after. Callers hold the write lock.
func (s *Store) adjustStock(ingredientID id.IngredientID, m *movement.Movement) (prev, next decimal.Decimal, err error) {
	i, ok := s.ingredients[ingredientID.String()]
	if !ok {
		return prev, next, fmt.Errorf("%w: %s", larder.ErrIngredientNotFound, ingredientID)
	}

	prev = i.CurrentStock
	next = prev.Add(m.Delta())
	i.CurrentStock = next
	i.Touch(m.CreatedAt)
	return prev, next, nil
}

func (s *Store) ListMovements(_ context.Context, opts movement.ListOpts) ([]*movement.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*movement.Movement, 0)
	for idx := len(s.movements) - 1; idx >= 0; idx-- {
		m := s.movements[idx]
		if opts.Matches(m) {
			c := *m
			result = append(result, &c)
		}
	}

	return paginate(result, opts.Limit, opts.Offset), nil
}

// ──────────────────────────────────────────────────
// Recipe Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateRecipe(_ context.Context, r *recipe.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return larder.ErrStoreClosed
	}
	if _, exists := s.recipes[r.ID.String()]; exists {
		return fmt.Errorf("%w: recipe %s", larder.ErrConflict, r.ID)
	}

	stored := *r
	stored.Lines = make([]recipe.Line, 0, len(r.Lines))
	for _, l := range r.Lines {
		l.RecipeID = r.ID
		l.Ingredient = nil
		stored.Lines = append(stored.Lines, l)
	}

	s.recipes[r.ID.String()] = &stored
	s.recipeOrder = append(s.recipeOrder, r.ID.String())
	return nil
}

func (s *Store) GetRecipe(_ context.Context, recipeID id.RecipeID) (*recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[recipeID.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, recipeID)
	}
	return s.resolve(r), nil
}

func (s *Store) ListRecipes(_ context.Context) ([]*recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*recipe.Recipe, 0, len(s.recipeOrder))
	for _, key := range s.recipeOrder {
		result = append(result, s.resolve(s.recipes[key]))
	}
	return result, nil
}

func (s *Store) UpdateRecipe(_ context.Context, r *recipe.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.recipes[r.ID.String()]
	if !ok {
		return fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, r.ID)
	}

	existing.Name = r.Name
	existing.Description = r.Description
	existing.Servings = r.Servings
	existing.Instructions = r.Instructions
	existing.SellingPrice = r.SellingPrice
	existing.UpdatedAt = r.UpdatedAt
	return nil
}

func (s *Store) DeleteRecipe(_ context.Context, recipeID id.RecipeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recipeID.String()
	if _, ok := s.recipes[key]; !ok {
		return fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, recipeID)
	}

	delete(s.recipes, key)
	for idx, k := range s.recipeOrder {
		if k == key {
			s.recipeOrder = append(s.recipeOrder[:idx], s.recipeOrder[idx+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) AddRecipeLine(_ context.Context, l *recipe.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.recipes[l.RecipeID.String()]
	if !ok {
		return fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, l.RecipeID)
	}

	stored := *l
	stored.Ingredient = nil
	r.Lines = append(r.Lines, stored)
	return nil
}

func (s *Store) RemoveRecipeLines(_ context.Context, recipeID id.RecipeID, ingredientID id.IngredientID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.recipes[recipeID.String()]
	if !ok {
		return 0, fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, recipeID)
	}

	kept := r.Lines[:0]
	var removed int64
	for _, l := range r.Lines {
		if l.IngredientID.String() == ingredientID.String() {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	r.Lines = kept
	return removed, nil
}

// resolve copies r and attaches each line's current ingredient. Callers
// hold at least the read lock.
func (s *Store) resolve(r *recipe.Recipe) *recipe.Recipe {
	out := *r
	out.Lines = make([]recipe.Line, len(r.Lines))
	for idx, l := range r.Lines {
		if i, ok := s.ingredients[l.IngredientID.String()]; ok {
			l.Ingredient = cloneIngredient(i)
		}
		out.Lines[idx] = l
	}
	return &out
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return larder.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func cloneIngredient(i *ingredient.Ingredient) *ingredient.Ingredient {
	c := *i
	if i.MinimumStock != nil {
		m := *i.MinimumStock
		c.MinimumStock = &m
	}
	return &c
}

func sortByName(list []*ingredient.Ingredient) {
	sort.SliceStable(list, func(a, b int) bool {
		if list[a].Name != list[b].Name {
			return list[a].Name < list[b].Name
		}
		return list[a].ID.String() < list[b].ID.String()
	})
}

func paginate[T any](list []T, limit, offset int) []T {
	start := max(0, min(offset, len(list)))
	end := len(list)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return list[start:end]
}
