package recipe

import (
	"context"

	"foodbook/internal/apperr"
	"foodbook/internal/catalog"
	"foodbook/internal/users"
)

// Store is the persistence surface the composer writes through.
type Store interface {
	CreateAggregate(ctx context.Context, r *Recipe, lines []LineInput, tagIDs []int64) error
	UpdateAggregate(ctx context.Context, r *Recipe, lines []LineInput, tagIDs []int64) error
	GetRecipe(ctx context.Context, id int64) (*Recipe, error)
	GetDetail(ctx context.Context, id, viewerID int64) (*Detail, error)
	Delete(ctx context.Context, id int64) error
}

// Catalog resolves ingredient and tag references during validation.
type Catalog interface {
	GetTags(ctx context.Context, ids []int64) ([]catalog.Tag, error)
	GetIngredients(ctx context.Context, ids []int64) ([]catalog.Ingredient, error)
}

// Composer validates and persists the recipe aggregate. All
// referential checks run before the transaction opens; a failure at
// any step leaves prior state untouched.
type Composer struct {
	store     Store
	catalog   Catalog
	minAmount int
	minTime   int
}

// NewComposer creates a Composer with the configured validation minimums.
func NewComposer(store Store, cat Catalog, minAmount, minCookingTime int) *Composer {
	return &Composer{store: store, catalog: cat, minAmount: minAmount, minTime: minCookingTime}
}

// Create validates the payload and persists a new aggregate, returning
// the denormalized read-back for the author.
func (c *Composer) Create(ctx context.Context, authorID int64, in Input) (*Detail, error) {
	if in.ImagePath == "" {
		return nil, apperr.Validation("image", "image is required")
	}
	if err := c.validate(ctx, in); err != nil {
		return nil, err
	}

	r := &Recipe{
		Name:        in.Name,
		AuthorID:    authorID,
		Image:       in.ImagePath,
		Text:        in.Text,
		CookingTime: in.CookingTime,
	}
	if err := c.store.CreateAggregate(ctx, r, in.Ingredients, in.TagIDs); err != nil {
		return nil, err
	}
	return c.store.GetDetail(ctx, r.ID, authorID)
}

// Update wholesale-replaces the aggregate from the payload. Only the
// author or an administrator may update; everyone else is rejected
// before any data is touched.
func (c *Composer) Update(ctx context.Context, recipeID int64, editor *users.User, in Input) (*Detail, error) {
	existing, err := c.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := authorize(existing, editor); err != nil {
		return nil, err
	}
	if err := c.validate(ctx, in); err != nil {
		return nil, err
	}

	r := &Recipe{
		ID:          recipeID,
		Name:        in.Name,
		AuthorID:    existing.AuthorID,
		Image:       in.ImagePath,
		Text:        in.Text,
		CookingTime: in.CookingTime,
	}
	if err := c.store.UpdateAggregate(ctx, r, in.Ingredients, in.TagIDs); err != nil {
		return nil, err
	}
	return c.store.GetDetail(ctx, recipeID, editor.ID)
}

// Delete removes the aggregate, subject to the same authorization rule
// as Update.
func (c *Composer) Delete(ctx context.Context, recipeID int64, editor *users.User) error {
	existing, err := c.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	if err := authorize(existing, editor); err != nil {
		return err
	}
	return c.store.Delete(ctx, recipeID)
}

func authorize(r *Recipe, editor *users.User) error {
	if r.AuthorID != editor.ID && !editor.IsAdmin {
		return apperr.Forbidden("only the author may modify this recipe")
	}
	return nil
}

// validate enforces the aggregate invariants in a fixed order, failing
// fast before any mutation: tags, then ingredients, then amounts, then
// cooking time.
func (c *Composer) validate(ctx context.Context, in Input) error {
	if in.Name == "" {
		return apperr.Validation("name", "name is required")
	}

	if len(in.TagIDs) == 0 {
		return apperr.Validation("tags", "at least one tag is required")
	}
	seenTags := make(map[int64]bool, len(in.TagIDs))
	for _, id := range in.TagIDs {
		if seenTags[id] {
			return apperr.Validation("tags", "tag %d is listed twice", id)
		}
		seenTags[id] = true
	}
	tags, err := c.catalog.GetTags(ctx, in.TagIDs)
	if err != nil {
		return err
	}
	if len(tags) != len(in.TagIDs) {
		found := make(map[int64]bool, len(tags))
		for _, t := range tags {
			found[t.ID] = true
		}
		for _, id := range in.TagIDs {
			if !found[id] {
				return apperr.NotFound("tag %d not found", id)
			}
		}
	}

	if len(in.Ingredients) == 0 {
		return apperr.Validation("ingredients", "at least one ingredient is required")
	}
	seenIngredients := make(map[int64]bool, len(in.Ingredients))
	for _, line := range in.Ingredients {
		if seenIngredients[line.IngredientID] {
			return apperr.Validation("ingredients", "ingredient %d is listed twice", line.IngredientID)
		}
		seenIngredients[line.IngredientID] = true
	}
	ids := make([]int64, len(in.Ingredients))
	for i, line := range in.Ingredients {
		ids[i] = line.IngredientID
	}
	ingredients, err := c.catalog.GetIngredients(ctx, ids)
	if err != nil {
		return err
	}
	if len(ingredients) != len(ids) {
		found := make(map[int64]bool, len(ingredients))
		for _, ing := range ingredients {
			found[ing.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return apperr.NotFound("ingredient %d not found", id)
			}
		}
	}

	for _, line := range in.Ingredients {
		if line.Amount < c.minAmount {
			return apperr.Validation("ingredients",
				"amount for ingredient %d must be at least %d", line.IngredientID, c.minAmount)
		}
	}

	if in.CookingTime < c.minTime {
		return apperr.Validation("cooking_time", "cooking time must be at least %d", c.minTime)
	}
	return nil
}
