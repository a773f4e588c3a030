// Package mongo implements the larder store on MongoDB through the grove
// ORM. Recording a movement uses a multi-document transaction, so the
// deployment must be a replica set or sharded cluster.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/larder"
	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/recipe"
	larderstore "github.com/xraph/larder/store"
)

// Collection name constants.
const (
	colIngredients = "larder_ingredients"
	colMovements   = "larder_stock_movements"
	colRecipes     = "larder_recipes"
)

// compile-time interface check
var _ larderstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all larder collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("larder/mongo: migrate %s indexes: %w", col, err)
		}
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
	m, err := toIngredientModel(i)
	if err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", larder.ErrDuplicateIngredient, i.Name)
		}
		return fmt.Errorf("larder/mongo: create ingredient: %w", err)
	}
	return nil
}

func (s *Store) GetIngredient(ctx context.Context, ingredientID id.IngredientID) (*ingredient.Ingredient, error) {
	var m ingredientModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": ingredientID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: %s", larder.ErrIngredientNotFound, ingredientID)
		}
		return nil, fmt.Errorf("larder/mongo: get ingredient: %w", err)
	}
	return fromIngredientModel(&m)
}

func (s *Store) GetIngredientByName(ctx context.Context, name string) (*ingredient.Ingredient, error) {
	var m ingredientModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"name": name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: name %q", larder.ErrIngredientNotFound, name)
		}
		return nil, fmt.Errorf("larder/mongo: get ingredient by name: %w", err)
	}
	return fromIngredientModel(&m)
}

func (s *Store) ListIngredients(ctx context.Context, opts ingredient.ListOpts) ([]*ingredient.Ingredient, error) {
	var models []ingredientModel

	filter := bson.M{}
	if opts.Search != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(opts.Search), "$options": "i"}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("larder/mongo: list ingredients: %w", err)
	}
	return fromIngredientModels(models)
}

func (s *Store) UpdateIngredient(ctx context.Context, i *ingredient.Ingredient) error {
	m, err := toIngredientModel(i)
	if err != nil {
		return err
	}

	res, err := s.mdb.NewUpdate((*ingredientModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		Set("name", m.Name).
		Set("description", m.Description).
		Set("unit", m.Unit).
		Set("unit_cost", m.UnitCost).
		Set("minimum_stock", m.MinimumStock).
		Set("supplier", m.Supplier).
		Set("updated_at", m.UpdatedAt).
		Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", larder.ErrDuplicateIngredient, i.Name)
		}
		return fmt.Errorf("larder/mongo: update ingredient: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("%w: %s", larder.ErrIngredientNotFound, i.ID)
	}
	return nil
}

func (s *Store) DeleteIngredient(ctx context.Context, ingredientID id.IngredientID) error {
	res, err := s.mdb.NewDelete((*ingredientModel)(nil)).
		Filter(bson.M{"_id": ingredientID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("larder/mongo: delete ingredient: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("%w: %s", larder.ErrIngredientNotFound, ingredientID)
	}
	return nil
}

func (s *Store) ListLowStock(ctx context.Context) ([]*ingredient.Ingredient, error) {
	var models []ingredientModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{
			"minimum_stock": bson.M{"$ne": nil},
			"$expr":         bson.M{"$lte": bson.A{"$current_stock", "$minimum_stock"}},
		}).
		Sort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("larder/mongo: list low stock: %w", err)
	}
	return fromIngredientModels(models)
}

// ==================== Movement Store ====================

// RecordMovement applies $inc to the ingredient and inserts the ledger
// document in one transaction. The pre-image returned by FindOneAndUpdate
// supplies the previous stock.
func (s *Store) RecordMovement(ctx context.Context, m *movement.Movement) error {
	delta := m.Delta()
	inc, err := toDecimal128(delta)
	if err != nil {
		return err
	}

	ingredients := s.mdb.Collection(colIngredients)
	sess, err := ingredients.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("larder/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		var before ingredientModel
		err := ingredients.FindOneAndUpdate(txCtx,
			bson.M{"_id": m.IngredientID.String()},
			bson.M{
				"$inc": bson.M{"current_stock": inc},
				"$set": bson.M{"updated_at": m.CreatedAt},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.Before),
		).Decode(&before)
		if err != nil {
			if isNoDocuments(err) {
				return nil, fmt.Errorf("%w: %s", larder.ErrIngredientNotFound, m.IngredientID)
			}
			return nil, err
		}

		previous, err := fromDecimal128(before.CurrentStock)
		if err != nil {
			return nil, err
		}
		m.PreviousStock = previous
		m.NewStock = previous.Add(delta)

		doc, err := toMovementModel(m)
		if err != nil {
			return nil, err
		}
		_, err = s.mdb.Collection(colMovements).InsertOne(txCtx, doc)
		return nil, err
	})
	if err != nil {
		if errors.Is(err, larder.ErrIngredientNotFound) {
			return err
		}
		return fmt.Errorf("larder/mongo: record movement: %w", err)
	}
	return nil
}

func (s *Store) ListMovements(ctx context.Context, opts movement.ListOpts) ([]*movement.Movement, error) {
	var models []movementModel

	filter := bson.M{}
	if !opts.IngredientID.IsNil() {
		filter["ingredient_id"] = opts.IngredientID.String()
	}
	if !opts.RecipeID.IsNil() {
		filter["related_recipe_id"] = opts.RecipeID.String()
	}
	if opts.Kind != "" {
		filter["movement_type"] = string(opts.Kind)
	}
	if !opts.Start.IsZero() || !opts.End.IsZero() {
		window := bson.M{}
		if !opts.Start.IsZero() {
			window["$gte"] = opts.Start
		}
		if !opts.End.IsZero() {
			window["$lte"] = opts.End
		}
		filter["created_at"] = window
	}

	// TypeIDs are time-ordered, so _id breaks ties within one timestamp.
	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("larder/mongo: list movements: %w", err)
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
	for i := range r.Lines {
		r.Lines[i].RecipeID = r.ID
	}
	m, err := toRecipeModel(r)
	if err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("larder/mongo: create recipe: %w", err)
	}
	return nil
}

func (s *Store) GetRecipe(ctx context.Context, recipeID id.RecipeID) (*recipe.Recipe, error) {
	var m recipeModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": recipeID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, recipeID)
		}
		return nil, fmt.Errorf("larder/mongo: get recipe: %w", err)
	}

	r, err := fromRecipeModel(&m)
	if err != nil {
		return nil, err
	}
	if err := s.resolveIngredients(ctx, []*recipe.Recipe{r}); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) ListRecipes(ctx context.Context) ([]*recipe.Recipe, error) {
	var models []recipeModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("larder/mongo: list recipes: %w", err)
	}

	result := make([]*recipe.Recipe, 0, len(models))
	for i := range models {
		r, err := fromRecipeModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := s.resolveIngredients(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdateRecipe(ctx context.Context, r *recipe.Recipe) error {
	price, err := toOptionalDecimal128(r.SellingPrice)
	if err != nil {
		return err
	}

	res, err := s.mdb.NewUpdate((*recipeModel)(nil)).
		Filter(bson.M{"_id": r.ID.String()}).
		Set("name", r.Name).
		Set("description", r.Description).
		Set("servings", r.Servings).
		Set("instructions", r.Instructions).
		Set("selling_price", price).
		Set("updated_at", r.UpdatedAt).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("larder/mongo: update recipe: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, r.ID)
	}
	return nil
}

func (s *Store) DeleteRecipe(ctx context.Context, recipeID id.RecipeID) error {
	res, err := s.mdb.NewDelete((*recipeModel)(nil)).
		Filter(bson.M{"_id": recipeID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("larder/mongo: delete recipe: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, recipeID)
	}
	return nil
}

func (s *Store) AddRecipeLine(ctx context.Context, l *recipe.Line) error {
	lm, err := toLineModel(l)
	if err != nil {
		return err
	}

	res, err := s.mdb.Collection(colRecipes).UpdateOne(ctx,
		bson.M{"_id": l.RecipeID.String()},
		bson.M{"$push": bson.M{"lines": lm}},
	)
	if err != nil {
		return fmt.Errorf("larder/mongo: add recipe line: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, l.RecipeID)
	}
	return nil
}

// RemoveRecipeLines pulls the lines atomically and counts them from the
// pre-image.
func (s *Store) RemoveRecipeLines(ctx context.Context, recipeID id.RecipeID, ingredientID id.IngredientID) (int64, error) {
	var before recipeModel
	err := s.mdb.Collection(colRecipes).FindOneAndUpdate(ctx,
		bson.M{"_id": recipeID.String()},
		bson.M{"$pull": bson.M{"lines": bson.M{"ingredient_id": ingredientID.String()}}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		if isNoDocuments(err) {
			return 0, fmt.Errorf("%w: %s", larder.ErrRecipeNotFound, recipeID)
		}
		return 0, fmt.Errorf("larder/mongo: remove recipe lines: %w", err)
	}

	var removed int64
	for _, l := range before.Lines {
		if l.IngredientID == ingredientID.String() {
			removed++
		}
	}
	return removed, nil
}

// resolveIngredients attaches each line's ingredient with a single $in
// lookup across all recipes.
func (s *Store) resolveIngredients(ctx context.Context, recipes []*recipe.Recipe) error {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, r := range recipes {
		for _, l := range r.Lines {
			key := l.IngredientID.String()
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				ids = append(ids, key)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var models []ingredientModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"_id": bson.M{"$in": ids}}).
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("larder/mongo: resolve ingredients: %w", err)
	}

	resolved := make(map[string]*ingredient.Ingredient, len(models))
	for i := range models {
		ing, err := fromIngredientModel(&models[i])
		if err != nil {
			return err
		}
		resolved[models[i].ID] = ing
	}

	for _, r := range recipes {
		for i := range r.Lines {
			if ing, ok := resolved[r.Lines[i].IngredientID.String()]; ok {
				copied := *ing
				r.Lines[i].Ingredient = &copied
			}
		}
	}
	return nil
}

// ==================== Helpers ====================

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

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all larder collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colIngredients: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colMovements: {
			{Keys: bson.D{{Key: "ingredient_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "movement_type", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "related_recipe_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		},
		colRecipes: {
			{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "lines.ingredient_id", Value: 1}}},
		},
	}
}
