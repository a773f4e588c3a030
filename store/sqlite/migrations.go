package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the larder store (SQLite).
//
// Quantities are stored as INTEGER thousandths and money as INTEGER cents,
// so stock arithmetic inside SQLite stays exact. Timestamps are INTEGER
// Unix nanoseconds.
var Migrations = migrate.NewGroup("larder")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_larder_ingredients",
			Version: "20260301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS larder_ingredients (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    unit          TEXT NOT NULL,
    unit_cost     INTEGER NOT NULL,
    current_stock INTEGER NOT NULL DEFAULT 0,
    minimum_stock INTEGER,
    supplier      TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL,
    updated_at    INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_larder_ingredients_name ON larder_ingredients (name);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS larder_ingredients`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_larder_recipes",
			Version: "20260301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS larder_recipes (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    servings      INTEGER NOT NULL CHECK (servings > 0),
    instructions  TEXT NOT NULL DEFAULT '',
    selling_price INTEGER,
    created_at    INTEGER NOT NULL,
    updated_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS larder_recipe_lines (
    id            TEXT PRIMARY KEY,
    recipe_id     TEXT NOT NULL,
    ingredient_id TEXT NOT NULL,
    quantity      INTEGER NOT NULL CHECK (quantity > 0),
    notes         TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_larder_recipe_lines_recipe ON larder_recipe_lines (recipe_id);

CREATE TRIGGER IF NOT EXISTS trg_larder_recipes_cascade
AFTER DELETE ON larder_recipes
BEGIN
    DELETE FROM larder_recipe_lines WHERE recipe_id = OLD.id;
END;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TRIGGER IF EXISTS trg_larder_recipes_cascade;
DROP TABLE IF EXISTS larder_recipe_lines;
DROP TABLE IF EXISTS larder_recipes;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_larder_stock_movements",
			Version: "20260301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS larder_stock_movements (
    id                TEXT PRIMARY KEY,
    ingredient_id     TEXT NOT NULL,
    movement_type     TEXT NOT NULL,
    quantity          INTEGER NOT NULL CHECK (quantity > 0),
    previous_stock    INTEGER NOT NULL,
    new_stock         INTEGER NOT NULL,
    reason            TEXT NOT NULL,
    notes             TEXT NOT NULL DEFAULT '',
    performed_by      TEXT NOT NULL,
    related_recipe_id TEXT NOT NULL DEFAULT '',
    created_at        INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_larder_movements_ingredient ON larder_stock_movements (ingredient_id, created_at);
CREATE INDEX IF NOT EXISTS idx_larder_movements_type ON larder_stock_movements (movement_type, created_at);
CREATE INDEX IF NOT EXISTS idx_larder_movements_recipe ON larder_stock_movements (related_recipe_id);
CREATE INDEX IF NOT EXISTS idx_larder_movements_created ON larder_stock_movements (created_at);

CREATE TRIGGER IF NOT EXISTS trg_larder_movements_apply
AFTER INSERT ON larder_stock_movements
BEGIN
    UPDATE larder_ingredients
    SET current_stock = NEW.new_stock, updated_at = NEW.created_at
    WHERE id = NEW.ingredient_id;
END;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TRIGGER IF EXISTS trg_larder_movements_apply;
DROP TABLE IF EXISTS larder_stock_movements;
`)
				return err
			},
		},
	)
}
