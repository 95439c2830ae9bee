package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"foodbook/internal/apperr"
	"foodbook/internal/catalog"
	"foodbook/internal/users"
)

// PostgresStore implements recipe persistence over PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateAggregate inserts the recipe row together with its ingredient
// lines and tag associations. Everything commits together or not at
// all; the recipe id is written back on success.
func (s *PostgresStore) CreateAggregate(ctx context.Context, r *Recipe, lines []LineInput, tagIDs []int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO recipes (name, author_id, image, text, cooking_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		r.Name, r.AuthorID, r.Image, r.Text, r.CookingTime,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return apperr.FromPG(err, "failed to create recipe")
	}

	if err := insertChildren(ctx, tx, r.ID, lines, tagIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe: %w", err)
	}
	return nil
}

// UpdateAggregate rewrites the recipe row and wholesale-replaces its
// ingredient lines and tag associations from the submitted lists.
// Nested collections are never merged. An empty image keeps the
// stored one.
func (s *PostgresStore) UpdateAggregate(ctx context.Context, r *Recipe, lines []LineInput, tagIDs []int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE recipes
		SET name = $1, text = $2, cooking_time = $3,
		    image = COALESCE(NULLIF($4, ''), image)
		WHERE id = $5`,
		r.Name, r.Text, r.CookingTime, r.Image, r.ID)
	if err != nil {
		return apperr.FromPG(err, "failed to update recipe")
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	} else if n == 0 {
		return apperr.NotFound("recipe %d not found", r.ID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = $1", r.ID); err != nil {
		return fmt.Errorf("failed to clear ingredient lines: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_tags WHERE recipe_id = $1", r.ID); err != nil {
		return fmt.Errorf("failed to clear tag associations: %w", err)
	}

	if err := insertChildren(ctx, tx, r.ID, lines, tagIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe: %w", err)
	}
	return nil
}

func insertChildren(ctx context.Context, tx *sqlx.Tx, recipeID int64, lines []LineInput, tagIDs []int64) error {
	for _, line := range lines {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES ($1, $2, $3)",
			recipeID, line.IngredientID, line.Amount)
		if err != nil {
			return apperr.FromPG(err, "failed to save ingredient line")
		}
	}
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ($1, $2)", recipeID, tagID)
		if err != nil {
			return apperr.FromPG(err, "failed to save tag association")
		}
	}
	return nil
}

// GetRecipe retrieves the bare aggregate root row, used for
// authorization and toggle existence checks.
func (s *PostgresStore) GetRecipe(ctx context.Context, id int64) (*Recipe, error) {
	var r Recipe
	err := s.db.GetContext(ctx, &r,
		"SELECT id, name, author_id, image, text, cooking_time, created_at FROM recipes WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("recipe %d not found", id)
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &r, nil
}

// Delete removes the recipe; ingredient lines, tag associations and
// marks cascade at the storage layer.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM recipes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("recipe %d not found", id)
	}
	return nil
}

type recipeRow struct {
	Recipe
	AuthorUsername  string `db:"author_username"`
	AuthorEmail     string `db:"author_email"`
	AuthorFirstName string `db:"author_first_name"`
	AuthorLastName  string `db:"author_last_name"`
}

const recipeColumns = `
	r.id, r.name, r.author_id, r.image, r.text, r.cooking_time, r.created_at,
	u.username AS author_username, u.email AS author_email,
	u.first_name AS author_first_name, u.last_name AS author_last_name`

// GetDetail returns the denormalized representation of one recipe as
// seen by viewerID (0 for an anonymous viewer).
func (s *PostgresStore) GetDetail(ctx context.Context, id, viewerID int64) (*Detail, error) {
	var row recipeRow
	err := s.db.GetContext(ctx, &row,
		"SELECT"+recipeColumns+" FROM recipes r JOIN users u ON u.id = r.author_id WHERE r.id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("recipe %d not found", id)
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	details, err := s.assemble(ctx, []recipeRow{row}, viewerID)
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// List returns a page of denormalized recipes matching the filter,
// newest first, along with the total match count.
func (s *PostgresStore) List(ctx context.Context, f Filter, viewerID int64) (int, []Detail, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	param := 1
	next := func(v interface{}) string {
		args = append(args, v)
		p := fmt.Sprintf("$%d", param)
		param++
		return p
	}

	if f.AuthorID != 0 {
		where += " AND r.author_id = " + next(f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		where += ` AND r.id IN (
			SELECT rt.recipe_id FROM recipe_tags rt
			JOIN tags t ON t.id = rt.tag_id
			WHERE t.slug = ANY(` + next(pq.Array(f.TagSlugs)) + `))`
	}
	if f.FavoritedBy != 0 {
		where += " AND r.id IN (SELECT recipe_id FROM favorites WHERE user_id = " + next(f.FavoritedBy) + ")"
	}
	if f.InCartOf != 0 {
		where += " AND r.id IN (SELECT recipe_id FROM shopping_cart WHERE user_id = " + next(f.InCartOf) + ")"
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT count(*) FROM recipes r"+where, args...); err != nil {
		return 0, nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	query := "SELECT" + recipeColumns +
		" FROM recipes r JOIN users u ON u.id = r.author_id" + where +
		" ORDER BY r.created_at DESC, r.id DESC" +
		" LIMIT " + next(f.Limit) + " OFFSET " + next(f.Offset)

	rows := []recipeRow{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return 0, nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	details, err := s.assemble(ctx, rows, viewerID)
	if err != nil {
		return 0, nil, err
	}
	return total, details, nil
}

// assemble resolves tags, ingredient lines, viewer flags and author
// subscriptions for a page of recipe rows. Each concern is one batched
// query across the page, never one query per row.
func (s *PostgresStore) assemble(ctx context.Context, rows []recipeRow, viewerID int64) ([]Detail, error) {
	if len(rows) == 0 {
		return []Detail{}, nil
	}

	recipeIDs := make([]int64, len(rows))
	authorIDs := make([]int64, len(rows))
	for i, r := range rows {
		recipeIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	type taggedTag struct {
		catalog.Tag
		RecipeID int64 `db:"recipe_id"`
	}
	tagRows := []taggedTag{}
	err := s.db.SelectContext(ctx, &tagRows, `
		SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id = ANY($1)
		ORDER BY t.name`, pq.Array(recipeIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tags: %w", err)
	}
	tagsByRecipe := map[int64][]catalog.Tag{}
	for _, t := range tagRows {
		tagsByRecipe[t.RecipeID] = append(tagsByRecipe[t.RecipeID], t.Tag)
	}

	type recipeLine struct {
		IngredientLine
		RecipeID int64 `db:"recipe_id"`
	}
	lineRows := []recipeLine{}
	err = s.db.SelectContext(ctx, &lineRows, `
		SELECT ri.recipe_id, i.id AS ingredient_id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ANY($1)
		ORDER BY i.name`, pq.Array(recipeIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ingredient lines: %w", err)
	}
	linesByRecipe := map[int64][]IngredientLine{}
	for _, l := range lineRows {
		linesByRecipe[l.RecipeID] = append(linesByRecipe[l.RecipeID], l.IngredientLine)
	}

	favorited, err := s.markSet(ctx, "favorites", viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := s.markSet(ctx, "shopping_cart", viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}

	followed := map[int64]bool{}
	if viewerID != 0 {
		var ids []int64
		err := s.db.SelectContext(ctx, &ids,
			"SELECT author_id FROM follows WHERE follower_id = $1 AND author_id = ANY($2)",
			viewerID, pq.Array(authorIDs))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve subscriptions: %w", err)
		}
		for _, id := range ids {
			followed[id] = true
		}
	}

	details := make([]Detail, len(rows))
	for i, row := range rows {
		tags := tagsByRecipe[row.ID]
		if tags == nil {
			tags = []catalog.Tag{}
		}
		lines := linesByRecipe[row.ID]
		if lines == nil {
			lines = []IngredientLine{}
		}
		details[i] = Detail{
			ID:   row.ID,
			Name: row.Name,
			Author: users.Profile{
				User: users.User{
					ID:        row.AuthorID,
					Username:  row.AuthorUsername,
					Email:     row.AuthorEmail,
					FirstName: row.AuthorFirstName,
					LastName:  row.AuthorLastName,
				},
				IsSubscribed: followed[row.AuthorID],
			},
			Image:            row.Image,
			Text:             row.Text,
			CookingTime:      row.CookingTime,
			CreatedAt:        row.CreatedAt,
			Tags:             tags,
			Ingredients:      lines,
			IsFavorited:      favorited[row.ID],
			IsInShoppingCart: inCart[row.ID],
		}
	}
	return details, nil
}

// markSet reports which of the given recipes carry a mark for the
// viewer in the named mark table.
func (s *PostgresStore) markSet(ctx context.Context, table string, viewerID int64, recipeIDs []int64) (map[int64]bool, error) {
	marks := map[int64]bool{}
	if viewerID == 0 || len(recipeIDs) == 0 {
		return marks, nil
	}
	var ids []int64
	query := fmt.Sprintf("SELECT recipe_id FROM %s WHERE user_id = $1 AND recipe_id = ANY($2)", table)
	if err := s.db.SelectContext(ctx, &ids, query, viewerID, pq.Array(recipeIDs)); err != nil {
		return nil, fmt.Errorf("failed to resolve %s marks: %w", table, err)
	}
	for _, id := range ids {
		marks[id] = true
	}
	return marks, nil
}

// AddFavorite marks the recipe as a favorite of the user. The insert
// itself arbitrates races: the loser of two concurrent adds gets a
// Conflict, never a second row.
func (s *PostgresStore) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	return s.addMark(ctx, "favorites", userID, recipeID, "recipe is already in favorites")
}

// RemoveFavorite deletes the favorite mark if present.
func (s *PostgresStore) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	return s.removeMark(ctx, "favorites", userID, recipeID, "recipe is not in favorites")
}

// AddToCart marks the recipe as a member of the user's shopping cart.
func (s *PostgresStore) AddToCart(ctx context.Context, userID, recipeID int64) error {
	return s.addMark(ctx, "shopping_cart", userID, recipeID, "recipe is already in the shopping cart")
}

// RemoveFromCart deletes the cart mark if present.
func (s *PostgresStore) RemoveFromCart(ctx context.Context, userID, recipeID int64) error {
	return s.removeMark(ctx, "shopping_cart", userID, recipeID, "recipe is not in the shopping cart")
}

func (s *PostgresStore) addMark(ctx context.Context, table string, userID, recipeID int64, conflictMsg string) error {
	query := fmt.Sprintf("INSERT INTO %s (user_id, recipe_id) VALUES ($1, $2)", table)
	if _, err := s.db.ExecContext(ctx, query, userID, recipeID); err != nil {
		if apperr.IsUniqueViolation(err) {
			return apperr.Conflict(conflictMsg)
		}
		return apperr.FromPG(err, "failed to add mark")
	}
	return nil
}

func (s *PostgresStore) removeMark(ctx context.Context, table string, userID, recipeID int64, missingMsg string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE user_id = $1 AND recipe_id = $2", table)
	res, err := s.db.ExecContext(ctx, query, userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to remove mark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to remove mark: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(missingMsg)
	}
	return nil
}

// ShoppingList aggregates ingredient amounts across every recipe in
// the user's cart, grouped by (name, unit) and ordered by name. An
// empty cart yields an Empty error, not a zero-length list.
func (s *PostgresStore) ShoppingList(ctx context.Context, userID int64) ([]ShoppingItem, error) {
	items := []ShoppingItem{}
	err := s.db.SelectContext(ctx, &items, `
		SELECT i.name, i.measurement_unit, SUM(ri.amount) AS total
		FROM shopping_cart sc
		JOIN recipe_ingredients ri ON ri.recipe_id = sc.recipe_id
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE sc.user_id = $1
		GROUP BY i.name, i.measurement_unit
		ORDER BY i.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shopping list: %w", err)
	}
	if len(items) == 0 {
		return nil, apperr.Empty("shopping cart is empty")
	}
	return items, nil
}
