package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"foodbook/internal/apperr"
)

// PostgresStore provides access to user profiles and the follow relation.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetUser retrieves a profile by id.
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u,
		"SELECT id, username, email, first_name, last_name, is_admin FROM users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user %d not found", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// Follow subscribes follower to author. Self-follow is rejected before
// any write; the unique pair constraint arbitrates duplicate attempts.
func (s *PostgresStore) Follow(ctx context.Context, followerID, authorID int64) error {
	if followerID == authorID {
		return apperr.Validation("author", "cannot follow yourself")
	}
	if _, err := s.GetUser(ctx, authorID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO follows (follower_id, author_id) VALUES ($1, $2)", followerID, authorID)
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return apperr.Conflict("already subscribed to user %d", authorID)
		}
		return apperr.FromPG(err, "failed to subscribe")
	}
	return nil
}

// Unfollow removes the subscription if present.
func (s *PostgresStore) Unfollow(ctx context.Context, followerID, authorID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM follows WHERE follower_id = $1 AND author_id = $2", followerID, authorID)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("not subscribed to user %d", authorID)
	}
	return nil
}

// FollowedSet reports which of the given authors the viewer follows,
// in one query per page rather than one per row.
func (s *PostgresStore) FollowedSet(ctx context.Context, viewerID int64, authorIDs []int64) (map[int64]bool, error) {
	followed := map[int64]bool{}
	if viewerID == 0 || len(authorIDs) == 0 {
		return followed, nil
	}
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
	return followed, nil
}

// Subscriptions lists the authors the user follows, each annotated
// with their recipe count and a preview of their recipes capped at
// recipesLimit (0 means unlimited). Pagination is limit/offset.
func (s *PostgresStore) Subscriptions(ctx context.Context, userID int64, recipesLimit, limit, offset int) (int, []Subscription, error) {
	var total int
	err := s.db.GetContext(ctx, &total,
		"SELECT count(*) FROM follows WHERE follower_id = $1", userID)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	authors := []User{}
	err = s.db.SelectContext(ctx, &authors, `
		SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.is_admin
		FROM users u
		JOIN follows f ON f.author_id = u.id
		WHERE f.follower_id = $1
		ORDER BY u.id
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if len(authors) == 0 {
		return total, []Subscription{}, nil
	}

	authorIDs := make([]int64, len(authors))
	for i, a := range authors {
		authorIDs[i] = a.ID
	}

	type authorRecipe struct {
		RecipePreview
		AuthorID int64 `db:"author_id"`
	}
	rows := []authorRecipe{}
	err = s.db.SelectContext(ctx, &rows, `
		SELECT id, name, image, cooking_time, author_id
		FROM recipes
		WHERE author_id = ANY($1)
		ORDER BY created_at DESC`, pq.Array(authorIDs))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load recipe previews: %w", err)
	}

	byAuthor := map[int64][]RecipePreview{}
	counts := map[int64]int{}
	for _, r := range rows {
		counts[r.AuthorID]++
		if recipesLimit == 0 || len(byAuthor[r.AuthorID]) < recipesLimit {
			byAuthor[r.AuthorID] = append(byAuthor[r.AuthorID], r.RecipePreview)
		}
	}

	subs := make([]Subscription, len(authors))
	for i, a := range authors {
		recipes := byAuthor[a.ID]
		if recipes == nil {
			recipes = []RecipePreview{}
		}
		subs[i] = Subscription{
			Profile:      Profile{User: a, IsSubscribed: true},
			Recipes:      recipes,
			RecipesCount: counts[a.ID],
		}
	}
	return total, subs, nil
}
