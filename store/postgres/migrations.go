package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the larder store.
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
    unit_cost     NUMERIC(12,2) NOT NULL,
    current_stock NUMERIC(14,3) NOT NULL DEFAULT 0,
    minimum_stock NUMERIC(14,3),
    supplier      TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    seq           BIGSERIAL,
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    servings      INT NOT NULL CHECK (servings > 0),
    instructions  TEXT NOT NULL DEFAULT '',
    selling_price NUMERIC(12,2),
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_larder_recipes_seq ON larder_recipes (seq);

CREATE TABLE IF NOT EXISTS larder_recipe_lines (
    seq           BIGSERIAL,
    id            TEXT PRIMARY KEY,
    recipe_id     TEXT NOT NULL REFERENCES larder_recipes (id) ON DELETE CASCADE,
    ingredient_id TEXT NOT NULL,
    quantity      NUMERIC(14,3) NOT NULL CHECK (quantity > 0),
    notes         TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_larder_recipe_lines_recipe ON larder_recipe_lines (recipe_id, seq);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
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
    seq               BIGSERIAL,
    id                TEXT PRIMARY KEY,
    ingredient_id     TEXT NOT NULL,
    movement_type     TEXT NOT NULL,
    quantity          NUMERIC(14,3) NOT NULL CHECK (quantity > 0),
    previous_stock    NUMERIC(14,3) NOT NULL,
    new_stock         NUMERIC(14,3) NOT NULL,
    reason            TEXT NOT NULL,
    notes             TEXT NOT NULL DEFAULT '',
    performed_by      TEXT NOT NULL,
    related_recipe_id TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_larder_movements_ingredient ON larder_stock_movements (ingredient_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_larder_movements_type ON larder_stock_movements (movement_type, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_larder_movements_recipe ON larder_stock_movements (related_recipe_id) WHERE related_recipe_id != '';
CREATE INDEX IF NOT EXISTS idx_larder_movements_created ON larder_stock_movements (created_at DESC, seq DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS larder_stock_movements`)
				return err
			},
		},
	)
}
