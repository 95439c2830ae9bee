// Package storage opens the shared database handle and bootstraps the
// relational schema. Unique constraints here are the enforcement
// mechanism for the aggregate invariants, not just request-time checks.
package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		is_admin BOOLEAN NOT NULL DEFAULT FALSE
	);`,
	`CREATE TABLE IF NOT EXISTS ingredients (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		measurement_unit TEXT NOT NULL,
		CONSTRAINT unique_ingredient_unit UNIQUE (name, measurement_unit)
	);`,
	`CREATE TABLE IF NOT EXISTS tags (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		color TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL UNIQUE
	);`,
	`CREATE TABLE IF NOT EXISTS recipes (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		image TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL DEFAULT '',
		cooking_time INTEGER NOT NULL CHECK (cooking_time > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE TABLE IF NOT EXISTS recipe_ingredients (
		recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		ingredient_id BIGINT NOT NULL REFERENCES ingredients(id),
		amount INTEGER NOT NULL CHECK (amount > 0),
		CONSTRAINT unique_recipe_ingredient UNIQUE (recipe_id, ingredient_id)
	);`,
	`CREATE TABLE IF NOT EXISTS recipe_tags (
		recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		tag_id BIGINT NOT NULL REFERENCES tags(id),
		CONSTRAINT unique_recipe_tag UNIQUE (recipe_id, tag_id)
	);`,
	`CREATE TABLE IF NOT EXISTS favorites (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		CONSTRAINT unique_favorite UNIQUE (user_id, recipe_id)
	);`,
	`CREATE TABLE IF NOT EXISTS shopping_cart (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		CONSTRAINT unique_shopping UNIQUE (user_id, recipe_id)
	);`,
	`CREATE TABLE IF NOT EXISTS follows (
		follower_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT unique_follow UNIQUE (follower_id, author_id),
		CONSTRAINT not_yourself_follow CHECK (follower_id <> author_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_recipes_author ON recipes(author_id);`,
	`CREATE INDEX IF NOT EXISTS idx_recipes_created ON recipes(created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_ingredients_name ON ingredients(name);`,
}

// Open connects to PostgreSQL and ensures the schema exists.
func Open(dataSourceName string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
		}
	}
	return db, nil
}
