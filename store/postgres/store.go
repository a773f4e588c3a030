// Package postgres implements the larder store on PostgreSQL through the
// grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/larder"
	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/recipe"
	larderstore "github.com/xraph/larder/store"
)

// compile-time interface check
var _ larderstore.Store = (*Store)(nil)

// PostgreSQL error codes the store translates.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("larder/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("larder/postgres: migration failed: %w", err)
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
	_, err := s.pg.NewInsert(toIngredientModel(i)).Exec(ctx)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", larder.ErrDuplicateIngredient, i.Name)
	}
	return err
}

func (s *Store) GetIngredient(ctx context.Context, ingredientID id.IngredientID) (*ingredient.Ingredient, error) {
	m := new(ingredientModel)
	err := s.pg.NewSelect(m).Where("id = $1", ingredientID.String()).Scan(ctx)
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
	err := s.pg.NewSelect(m).Where("name = $1", name).Scan(ctx)
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
	q := s.pg.NewSelect(&models)
	if opts.Search != "" {
		q = q.Where(`name ILIKE $1 ESCAPE '\'`, "%"+likeEscaper.Replace(opts.Search)+"%")
	}
	q = q.OrderExpr(`name COLLATE "C" ASC, id ASC`)
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
	res, err := s.pg.NewUpdate((*ingredientModel)(nil)).
		Set("name = $1", i.Name).
		Set("description = $2", i.Description).
		Set("unit = $3", i.Unit).
		Set("unit_cost = $4", i.UnitCost.String()).
		Set("minimum_stock = $5", optionalText(i.MinimumStock)).
		Set("supplier = $6", i.Supplier).
		Set("updated_at = $7", i.UpdatedAt).
		Where("id = $8", i.ID.String()).
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
	res, err := s.pg.NewDelete((*ingredientModel)(nil)).
		Where("id = $1", ingredientID.String()).
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
	err := s.pg.NewSelect(&models).
		Where("minimum_stock IS NOT NULL AND current_stock <= minimum_stock").
		OrderExpr(`name COLLATE "C" ASC, id ASC`).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return fromIngredientModels(models)
}

// ==================== Movement Store ====================

// recordMovementSQL applies the delta and appends the ledger row in one
// statement. The UPDATE takes the ingredient's row lock, so concurrent
// movements on one ingredient serialize on it.
const recordMovementSQL = `
WITH moved AS (
    UPDATE larder_ingredients
    SET current_stock = current_stock + $2::numeric, updated_at = $3
    WHERE id = $1
    RETURNING current_stock
)
INSERT INTO larder_stock_movements (
    id, ingredient_id, movement_type, quantity, previous_stock, new_stock,
    reason, notes, performed_by, related_recipe_id, created_at
)
SELECT $4, $1, $5, $6::numeric, current_stock - $2::numeric, current_stock,
       $7, $8, $9, $10, $3
FROM moved
RETURNING new_stock::text`

func (s *Store) RecordMovement(ctx context.Context, m *movement.Movement) error {
	delta := m.Delta()

	var newStock string
	err := s.pg.NewRaw(recordMovementSQL,
		m.IngredientID.String(),
		delta.String(),
		m.CreatedAt,
		m.ID.String(),
		string(m.Kind),
		m.Quantity.String(),
		m.Reason,
		m.Notes,
		m.PerformedBy,
		recipeRef(m.RecipeID),
	).Scan(ctx, &newStock)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("%w: %s", larder.ErrIngredientNotFound, m.IngredientID)
		}
		return err
	}

	next, err := decimal.NewFromString(newStock)
	if err != nil {
		return err
	}
	m.NewStock = next
	m.PreviousStock = next.Sub(delta)
	return nil
}

func (s *Store) ListMovements(ctx context.Context, opts movement.ListOpts) ([]*movement.Movement, error) {
	var models []movementModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if !opts.IngredientID.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("ingredient_id = $%d", argIdx), opts.IngredientID.String())
	}
	if !opts.RecipeID.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("related_recipe_id = $%d", argIdx), opts.RecipeID.String())
	}
	if opts.Kind != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("movement_type = $%d", argIdx), string(opts.Kind))
	}
	if !opts.Start.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("created_at >= $%d", argIdx), opts.Start)
	}
	if !opts.End.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("created_at <= $%d", argIdx), opts.End)
	}

	q = q.OrderExpr("created_at DESC, seq DESC")
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
	if _, err := s.pg.NewInsert(toRecipeModel(r)).Exec(ctx); err != nil {
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
	if _, err := s.pg.NewInsert(&lines).Exec(ctx); err != nil {
		// Lines cascade with the header.
		return withRollback(err, func() error { return s.DeleteRecipe(ctx, r.ID) })
	}
	return nil
}

func (s *Store) GetRecipe(ctx context.Context, recipeID id.RecipeID) (*recipe.Recipe, error) {
	m := new(recipeModel)
	err := s.pg.NewSelect(m).Where("id = $1", recipeID.String()).Scan(ctx)
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
	if err := s.pg.NewSelect(&models).OrderExpr("seq ASC").Scan(ctx); err != nil {
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
	res, err := s.pg.NewUpdate((*recipeModel)(nil)).
		Set("name = $1", r.Name).
		Set("description = $2", r.Description).
		Set("servings = $3", r.Servings).
		Set("instructions = $4", r.Instructions).
		Set("selling_price = $5", optionalText(r.SellingPrice)).
		Set("updated_at = $6", r.UpdatedAt).
		Where("id = $7", r.ID.String()).
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
	res, err := s.pg.NewDelete((*recipeModel)(nil)).
		Where("id = $1", recipeID.String()).
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

func (s *Store) AddRecipeLine(ctx context.Context, l *recipe.Line) error {
	_, err := s.pg.NewInsert(toLineModel(l)).Exec(ctx)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, l.RecipeID)
	}
	return err
}

func (s *Store) RemoveRecipeLines(ctx context.Context, recipeID id.RecipeID, ingredientID id.IngredientID) (int64, error) {
	var exists bool
	err := s.pg.NewRaw(`SELECT EXISTS (SELECT 1 FROM larder_recipes WHERE id = $1)`, recipeID.String()).
		Scan(ctx, &exists)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, recipeID)
	}

	res, err := s.pg.NewDelete((*lineModel)(nil)).
		Where("recipe_id = $1", recipeID.String()).
		Where("ingredient_id = $2", ingredientID.String()).
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
	recipeIDs := make([]string, 0, len(recipes))
	for _, r := range recipes {
		byID[r.ID.String()] = r
		recipeIDs = append(recipeIDs, r.ID.String())
	}

	var lines []lineModel
	err := s.pg.NewSelect(&lines).
		Where("recipe_id = ANY($1)", recipeIDs).
		OrderExpr("seq ASC").
		Scan(ctx)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	ingredientIDs := make([]string, 0, len(lines))
	for i := range lines {
		ingredientIDs = append(ingredientIDs, lines[i].IngredientID)
	}
	var ingredients []ingredientModel
	if err := s.pg.NewSelect(&ingredients).Where("id = ANY($1)", ingredientIDs).Scan(ctx); err != nil {
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
		return errors.Join(err, fmt.Errorf("larder/postgres: remove partial recipe: %w", rbErr))
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

func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
