package catalog

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"foodbook/internal/apperr"
)

// PostgresStore provides access to the ingredient and tag catalogs.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ListIngredients returns ingredients ordered by name, optionally
// filtered by a case-insensitive name prefix.
func (s *PostgresStore) ListIngredients(ctx context.Context, namePrefix string) ([]Ingredient, error) {
	ingredients := []Ingredient{}
	query := "SELECT id, name, measurement_unit FROM ingredients"
	args := []interface{}{}
	if namePrefix != "" {
		query += " WHERE name ILIKE $1 || '%'"
		args = append(args, namePrefix)
	}
	query += " ORDER BY name"

	if err := s.db.SelectContext(ctx, &ingredients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredients resolves the given ids, preserving no particular order.
// Callers compare the result size against the request to detect
// unknown references.
func (s *PostgresStore) GetIngredients(ctx context.Context, ids []int64) ([]Ingredient, error) {
	ingredients := []Ingredient{}
	err := s.db.SelectContext(ctx, &ingredients,
		"SELECT id, name, measurement_unit FROM ingredients WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredients: %w", err)
	}
	return ingredients, nil
}

// CreateIngredient inserts a catalog entry. The (name, unit) pair is
// unique at the storage layer.
func (s *PostgresStore) CreateIngredient(ctx context.Context, ing *Ingredient) error {
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO ingredients (name, measurement_unit) VALUES ($1, $2) RETURNING id",
		ing.Name, ing.MeasurementUnit,
	).Scan(&ing.ID)
	if err != nil {
		return apperr.FromPG(err, "ingredient already exists")
	}
	return nil
}

// ListTags returns the full tag catalog ordered by name.
func (s *PostgresStore) ListTags(ctx context.Context) ([]Tag, error) {
	tags := []Tag{}
	if err := s.db.SelectContext(ctx, &tags, "SELECT id, name, color, slug FROM tags ORDER BY name"); err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// GetTags resolves the given tag ids.
func (s *PostgresStore) GetTags(ctx context.Context, ids []int64) ([]Tag, error) {
	tags := []Tag{}
	err := s.db.SelectContext(ctx, &tags,
		"SELECT id, name, color, slug FROM tags WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	return tags, nil
}

// CreateTag inserts a tag, deriving the slug from the name when blank.
func (s *PostgresStore) CreateTag(ctx context.Context, tag *Tag) error {
	if tag.Slug == "" {
		tag.Slug = DeriveSlug(tag.Name)
	}
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO tags (name, color, slug) VALUES ($1, $2, $3) RETURNING id",
		tag.Name, tag.Color, tag.Slug,
	).Scan(&tag.ID)
	if err != nil {
		return apperr.FromPG(err, "tag already exists")
	}
	return nil
}
