// Package sqlite implements the larder store on SQLite through the grove
// ORM.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/xraph/larder"
	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/recipe"
	larderstore "github.com/xraph/larder/store"
)

// compile-time interface check
var _ larderstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("larder/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("larder/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Ingredient Store ====================

func (s *Store) CreateIngredient(ctx context.Context, i *ingredient.Ingredient) error {
	_, err := s.sdb.NewInsert(toIngredientModel(i)).Exec(ctx)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", larder.ErrDuplicateIngredient, i.Name)
	}
	return err
}

func (s *Store) GetIngredient(ctx context.Context, ingredientID id.IngredientID) (*ingredient.Ingredient, error) {
	m := new(ingredientModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", ingredientID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", larder.ErrIngredientNotFound, ingredientID)
		}
		return nil, err
	}
	return fromIngredientModel(m)
}

func (s *Store) GetIngredientByName(ctx context.Context, name string) (*ingredient.Ingredient, error) {
	m := new(ingredientModel)
	err := s.sdb.NewSelect(m).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: name %q", larder.ErrIngredientNotFound, name)
		}
		return nil, err
	}
	return fromIngredientModel(m)
}

func (s *Store) ListIngredients(ctx context.Context, opts ingredient.ListOpts) ([]*ingredient.Ingredient, error) {
	var models []ingredientModel
	q := s.sdb.NewSelect(&models)

	// LIKE is case-insensitive for ASCII in SQLite.
	if opts.Search != "" {
		q = q.Where(`name LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(opts.Search)+"%")
	}
	q = q.OrderExpr("name ASC, id ASC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return fromIngredientModels(models)
}

func (s *Store) UpdateIngredient(ctx context.Context, i *ingredient.Ingredient) error {
	m := toIngredientModel(i)
	res, err := s.sdb.NewUpdate((*ingredientModel)(nil)).
		Set("name = ?", m.Name).
		Set("description = ?", m.Description).
		Set("unit = ?", m.Unit).
		Set("unit_cost = ?", m.UnitCost).
		Set("minimum_stock = ?", m.MinimumStock).
		Set("supplier = ?", m.Supplier).
		Set("updated_at = ?", m.UpdatedAt).
		Where("id = ?", m.ID).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", larder.ErrDuplicateIngredient, i.Name)
		}
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", larder.ErrIngredientNotFound, i.ID)
	}
	return nil
}

func (s *Store) DeleteIngredient(ctx context.Context, ingredientID id.IngredientID) error {
	res, err := s.sdb.NewDelete((*ingredientModel)(nil)).
		Where("id = ?", ingredientID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", larder.ErrIngredientNotFound, ingredientID)
	}
	return nil
}

func (s *Store) ListLowStock(ctx context.Context) ([]*ingredient.Ingredient, error) {
	var models []ingredientModel
	err := s.sdb.NewSelect(&models).
		Where("minimum_stock IS NOT NULL AND current_stock <= minimum_stock").
		OrderExpr("name ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return fromIngredientModels(models)
}

// ==================== Movement Store ====================

// recordMovementSQL reads the current stock and appends the ledger row in
// one statement; trg_larder_movements_apply writes new_stock back to the
// ingredient inside the same implicit transaction. SQLite admits a single
// writer, so concurrent movements cannot interleave.
const recordMovementSQL = `
INSERT INTO larder_stock_movements (
    id, ingredient_id, movement_type, quantity, previous_stock, new_stock,
    reason, notes, performed_by, related_recipe_id, created_at
)
SELECT ?, id, ?, ?, current_stock, current_stock + ?, ?, ?, ?, ?, ?
FROM larder_ingredients
WHERE id = ?
RETURNING previous_stock`

func (s *Store) RecordMovement(ctx context.Context, m *movement.Movement) error {
	delta := thousandths(m.Delta())

	var previous int64
	err := s.sdb.NewRaw(recordMovementSQL,
		m.ID.String(),
		string(m.Kind),
		thousandths(m.Quantity),
		delta,
		m.Reason,
		m.Notes,
		m.PerformedBy,
		recipeRef(m.RecipeID),
		stamp(m.CreatedAt),
		m.IngredientID.String(),
	).Scan(ctx, &previous)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("%w: %s", larder.ErrIngredientNotFound, m.IngredientID)
		}
		return err
	}

	m.PreviousStock = fromThousandths(previous)
	m.NewStock = fromThousandths(previous + delta)
	return nil
}

func (s *Store) ListMovements(ctx context.Context, opts movement.ListOpts) ([]*movement.Movement, error) {
	var models []movementModel
	q := s.sdb.NewSelect(&models)

	if !opts.IngredientID.IsNil() {
		q = q.Where("ingredient_id = ?", opts.IngredientID.String())
	}
	if !opts.RecipeID.IsNil() {
		q = q.Where("related_recipe_id = ?", opts.RecipeID.String())
	}
	if opts.Kind != "" {
		q = q.Where("movement_type = ?", string(opts.Kind))
	}
	if !opts.Start.IsZero() {
		q = q.Where("created_at >= ?", stamp(opts.Start))
	}
	if !opts.End.IsZero() {
		q = q.Where("created_at <= ?", stamp(opts.End))
	}

	q = q.OrderExpr("created_at DESC, rowid DESC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*movement.Movement, 0, len(models))
	for i := range models {
		mv, err := fromMovementModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, mv)
	}
	return result, nil
}

// ==================== Recipe Store ====================

func (s *Store) CreateRecipe(ctx context.Context, r *recipe.Recipe) error {
	if _, err := s.sdb.NewInsert(toRecipeModel(r)).Exec(ctx); err != nil {
		return err
	}
	if len(r.Lines) == 0 {
		return nil
	}

	lines := make([]lineModel, len(r.Lines))
	for i := range r.Lines {
		r.Lines[i].RecipeID = r.ID
		lines[i] = *toLineModel(&r.Lines[i])
	}
	if _, err := s.sdb.NewInsert(&lines).Exec(ctx); err != nil {
		// trg_larder_recipes_cascade removes any lines with the header.
		return withRollback(err, func() error { return s.DeleteRecipe(ctx, r.ID) })
	}
	return nil
}

func (s *Store) GetRecipe(ctx context.Context, recipeID id.RecipeID) (*recipe.Recipe, error) {
	m := new(recipeModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", recipeID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, recipeID)
		}
		return nil, err
	}

	r, err := fromRecipeModel(m)
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, []*recipe.Recipe{r}); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) ListRecipes(ctx context.Context) ([]*recipe.Recipe, error) {
	var models []recipeModel
	if err := s.sdb.NewSelect(&models).OrderExpr("rowid ASC").Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*recipe.Recipe, 0, len(models))
	for i := range models {
		r, err := fromRecipeModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := s.loadLines(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdateRecipe(ctx context.Context, r *recipe.Recipe) error {
	m := toRecipeModel(r)
	res, err := s.sdb.NewUpdate((*recipeModel)(nil)).
		Set("name = ?", m.Name).
		Set("description = ?", m.Description).
		Set("servings = ?", m.Servings).
		Set("instructions = ?", m.Instructions).
		Set("selling_price = ?", m.SellingPrice).
		Set("updated_at = ?", m.UpdatedAt).
		Where("id = ?", m.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, r.ID)
	}
	return nil
}

func (s *Store) DeleteRecipe(ctx context.Context, recipeID id.RecipeID) error {
	res, err := s.sdb.NewDelete((*recipeModel)(nil)).
		Where("id = ?", recipeID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, recipeID)
	}
	return nil
}

// addLineSQL inserts the line only while its recipe exists.
const addLineSQL = `
INSERT INTO larder_recipe_lines (id, recipe_id, ingredient_id, quantity, notes, created_at)
SELECT ?, id, ?, ?, ?, ?
FROM larder_recipes
WHERE id = ?
RETURNING id`

func (s *Store) AddRecipeLine(ctx context.Context, l *recipe.Line) error {
	m := toLineModel(l)

	var inserted string
	err := s.sdb.NewRaw(addLineSQL,
		m.ID, m.IngredientID, m.Quantity, m.Notes, m.CreatedAt, m.RecipeID,
	).Scan(ctx, &inserted)
	if isNoRows(err) {
		return fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, l.RecipeID)
	}
	return err
}

func (s *Store) RemoveRecipeLines(ctx context.Context, recipeID id.RecipeID, ingredientID id.IngredientID) (int64, error) {
	var count int64
	err := s.sdb.NewRaw(`SELECT COUNT(*) FROM larder_recipes WHERE id = ?`, recipeID.String()).
		Scan(ctx, &count)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, recipeID)
	}

	res, err := s.sdb.NewDelete((*lineModel)(nil)).
		Where("recipe_id = ?", recipeID.String()).
		Where("ingredient_id = ?", ingredientID.String()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// loadLines attaches lines and their ingredients to recipes with one query
// per table.
func (s *Store) loadLines(ctx context.Context, recipes []*recipe.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	byID := make(map[string]*recipe.Recipe, len(recipes))
	recipeIDs := make([]any, 0, len(recipes))
	for _, r := range recipes {
		byID[r.ID.String()] = r
		recipeIDs = append(recipeIDs, r.ID.String())
	}

	var lines []lineModel
	err := s.sdb.NewSelect(&lines).
		Where("recipe_id IN ("+placeholders(len(recipeIDs))+")", recipeIDs...).
		OrderExpr("rowid ASC").
		Scan(ctx)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	ingredientIDs := make([]any, 0, len(lines))
	for i := range lines {
		ingredientIDs = append(ingredientIDs, lines[i].IngredientID)
	}
	var ingredients []ingredientModel
	err = s.sdb.NewSelect(&ingredients).
		Where("id IN ("+placeholders(len(ingredientIDs))+")", ingredientIDs...).
		Scan(ctx)
	if err != nil {
		return err
	}
	resolved := make(map[string]*ingredientModel, len(ingredients))
	for i := range ingredients {
		resolved[ingredients[i].ID] = &ingredients[i]
	}

	for i := range lines {
		line, err := fromLineModel(&lines[i])
		if err != nil {
			return err
		}
		if im, ok := resolved[lines[i].IngredientID]; ok {
			if line.Ingredient, err = fromIngredientModel(im); err != nil {
				return err
			}
		}
		r := byID[lines[i].RecipeID]
		r.Lines = append(r.Lines, line)
	}
	return nil
}

// ==================== Helpers ====================

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func fromIngredientModels(models []ingredientModel) ([]*ingredient.Ingredient, error) {
	result := make([]*ingredient.Ingredient, 0, len(models))
	for i := range models {
		ing, err := fromIngredientModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, ing)
	}
	return result, nil
}

// withRollback runs rollback after a failed write. A rollback failure is
// joined to err so a partially written recipe is never reported silently.
func withRollback(err error, rollback func() error) error {
	if rbErr := rollback(); rbErr != nil {
		return errors.Join(err, fmt.Errorf("larder/sqlite: remove partial recipe: %w", rbErr))
	}
	return err
}

func recipeRef(recipeID id.RecipeID) string {
	if recipeID.IsNil() {
		return ""
	}
	return recipeID.String()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// sqliteError is satisfied by the driver's error type.
type sqliteError interface {
	error
	Code() int
}

func isUniqueViolation(err error) bool {
	var se sqliteError
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
