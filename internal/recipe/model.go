package recipe

import (
	"time"

	"foodbook/internal/catalog"
	"foodbook/internal/users"
)

// Recipe is the aggregate root row. Its ingredient lines and tag
// associations are owned exclusively and only ever written together
// with it in one transaction.
type Recipe struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	AuthorID    int64     `json:"-" db:"author_id"`
	Image       string    `json:"image" db:"image"`
	Text        string    `json:"text" db:"text"`
	CookingTime int       `json:"cooking_time" db:"cooking_time"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// LineInput is one submitted (ingredient, amount) pair.
type LineInput struct {
	IngredientID int64
	Amount       int
}

// Input is the composer payload for create and update. ImagePath is
// already persisted by the media layer; an empty path on update keeps
// the stored image.
type Input struct {
	Name        string
	ImagePath   string
	Text        string
	CookingTime int
	TagIDs      []int64
	Ingredients []LineInput
}

// IngredientLine is a resolved line in the denormalized representation.
type IngredientLine struct {
	ID              int64  `json:"id" db:"ingredient_id"`
	Name            string `json:"name" db:"name"`
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit"`
	Amount          int    `json:"amount" db:"amount"`
}

// Detail is the fully denormalized recipe as returned to a viewer.
type Detail struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	Author           users.Profile    `json:"author"`
	Image            string           `json:"image"`
	Text             string           `json:"text"`
	CookingTime      int              `json:"cooking_time"`
	CreatedAt        time.Time        `json:"created_at"`
	Tags             []catalog.Tag    `json:"tags"`
	Ingredients      []IngredientLine `json:"ingredients"`
	IsFavorited      bool             `json:"is_favorited"`
	IsInShoppingCart bool             `json:"is_in_shopping_cart"`
}

// Short is the compact representation returned by the toggle endpoints.
type Short struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// ShortOf projects a recipe row to its compact representation.
func ShortOf(r *Recipe) Short {
	return Short{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// Filter narrows a recipe listing. Zero values mean "no constraint".
type Filter struct {
	AuthorID    int64
	TagSlugs    []string
	FavoritedBy int64
	InCartOf    int64
	Limit       int
	Offset      int
}

// ShoppingItem is one aggregated line of a shopping list: amounts
// summed across every recipe in the cart, grouped by (name, unit).
type ShoppingItem struct {
	Name            string `json:"name" db:"name"`
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit"`
	Total           int    `json:"total" db:"total"`
}
