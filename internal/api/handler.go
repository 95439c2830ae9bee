package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"foodbook/internal/catalog"
	"foodbook/internal/recipe"
	"foodbook/internal/users"
)

const defaultPageSize = 10

// RecipeStore defines the recipe data operations the handlers need.
type RecipeStore interface {
	GetRecipe(ctx context.Context, id int64) (*recipe.Recipe, error)
	GetDetail(ctx context.Context, id, viewerID int64) (*recipe.Detail, error)
	List(ctx context.Context, f recipe.Filter, viewerID int64) (int, []recipe.Detail, error)
	AddFavorite(ctx context.Context, userID, recipeID int64) error
	RemoveFavorite(ctx context.Context, userID, recipeID int64) error
	AddToCart(ctx context.Context, userID, recipeID int64) error
	RemoveFromCart(ctx context.Context, userID, recipeID int64) error
	ShoppingList(ctx context.Context, userID int64) ([]recipe.ShoppingItem, error)
}

// RecipeComposer performs validated aggregate writes.
type RecipeComposer interface {
	Create(ctx context.Context, authorID int64, in recipe.Input) (*recipe.Detail, error)
	Update(ctx context.Context, recipeID int64, editor *users.User, in recipe.Input) (*recipe.Detail, error)
	Delete(ctx context.Context, recipeID int64, editor *users.User) error
}

// CatalogStore defines the read-only reference data operations.
type CatalogStore interface {
	ListIngredients(ctx context.Context, namePrefix string) ([]catalog.Ingredient, error)
	ListTags(ctx context.Context) ([]catalog.Tag, error)
}

// UserStore defines the profile and follow operations.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*users.User, error)
	Follow(ctx context.Context, followerID, authorID int64) error
	Unfollow(ctx context.Context, followerID, authorID int64) error
	Subscriptions(ctx context.Context, userID int64, recipesLimit, limit, offset int) (int, []users.Subscription, error)
}

// ImageStore persists uploaded base64 images.
type ImageStore interface {
	SaveBase64(data string) (string, error)
}

// Handler handles HTTP requests.
type Handler struct {
	Recipes  RecipeStore
	Composer RecipeComposer
	Catalog  CatalogStore
	Users    UserStore
	Images   ImageStore

	jwtSecret string
	timeout   time.Duration
}

// NewHandler creates a new Handler.
func NewHandler(recipes RecipeStore, composer RecipeComposer, cat CatalogStore, userStore UserStore, images ImageStore, jwtSecret string, timeout time.Duration) *Handler {
	return &Handler{
		Recipes:   recipes,
		Composer:  composer,
		Catalog:   cat,
		Users:     userStore,
		Images:    images,
		jwtSecret: jwtSecret,
		timeout:   timeout,
	}
}

// Register wires all routes onto the router.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.GET("/ingredients", h.ListIngredients)
	r.GET("/tags", h.ListTags)

	recipes := r.Group("/recipes")
	{
		recipes.GET("", h.optionalAuth, h.ListRecipes)
		recipes.POST("", h.requireAuth, h.CreateRecipe)
		recipes.GET("/shopping_cart/download", h.requireAuth, h.DownloadShoppingCart)
		recipes.GET("/:id", h.optionalAuth, h.GetRecipe)
		recipes.PATCH("/:id", h.requireAuth, h.UpdateRecipe)
		recipes.DELETE("/:id", h.requireAuth, h.DeleteRecipe)
		recipes.POST("/:id/favorite", h.requireAuth, h.AddFavorite)
		recipes.DELETE("/:id/favorite", h.requireAuth, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", h.requireAuth, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", h.requireAuth, h.RemoveFromCart)
	}

	userRoutes := r.Group("/users", h.requireAuth)
	{
		userRoutes.GET("/subscriptions", h.ListSubscriptions)
		userRoutes.POST("/:id/subscribe", h.Subscribe)
		userRoutes.DELETE("/:id/subscribe", h.Unsubscribe)
	}
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func idParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("malformed id %q", c.Param("id"))
	}
	return id, nil
}

// ListIngredients handles the read-only ingredient catalog listing,
// filterable by name prefix.
func (h *Handler) ListIngredients(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	ingredients, err := h.Catalog.ListIngredients(ctx, c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

// ListTags handles the read-only tag catalog listing.
func (h *Handler) ListTags(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	tags, err := h.Catalog.ListTags(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// ListRecipes handles the filterable, paginated recipe listing.
func (h *Handler) ListRecipes(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	viewer := viewerID(c)
	limit, offset := pagination(c)
	filter := recipe.Filter{
		TagSlugs: c.QueryArray("tags"),
		Limit:    limit,
		Offset:   offset,
	}
	if author := c.Query("author"); author != "" {
		id, err := strconv.ParseInt(author, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"author": "must be a user id"}})
			return
		}
		filter.AuthorID = id
	}
	// Membership filters only make sense for an authenticated viewer.
	if viewer != 0 {
		if boolQuery(c, "is_favorited") {
			filter.FavoritedBy = viewer
		}
		if boolQuery(c, "is_in_shopping_cart") {
			filter.InCartOf = viewer
		}
	}

	total, results, err := h.Recipes.List(ctx, filter, viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": total, "results": results})
}

// GetRecipe handles retrieval of a single denormalized recipe.
func (h *Handler) GetRecipe(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "recipe not found"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	detail, err := h.Recipes.GetDetail(ctx, id, viewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type ingredientLineRequest struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

type recipeRequest struct {
	Name        string                  `json:"name" binding:"required"`
	Image       string                  `json:"image"`
	Text        string                  `json:"text"`
	CookingTime int                     `json:"cooking_time"`
	Tags        []int64                 `json:"tags"`
	Ingredients []ingredientLineRequest `json:"ingredients"`
}

func (h *Handler) composerInput(req recipeRequest) (recipe.Input, error) {
	in := recipe.Input{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
	}
	for _, line := range req.Ingredients {
		in.Ingredients = append(in.Ingredients, recipe.LineInput{IngredientID: line.ID, Amount: line.Amount})
	}
	if req.Image != "" {
		path, err := h.Images.SaveBase64(req.Image)
		if err != nil {
			return recipe.Input{}, err
		}
		in.ImagePath = path
	}
	return in, nil
}

// CreateRecipe handles publication of a new recipe aggregate.
func (h *Handler) CreateRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"body": err.Error()}})
		return
	}

	in, err := h.composerInput(req)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	detail, err := h.Composer.Create(ctx, currentUser(c).ID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// UpdateRecipe handles a wholesale aggregate update.
func (h *Handler) UpdateRecipe(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "recipe not found"})
		return
	}

	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"body": err.Error()}})
		return
	}

	in, err := h.composerInput(req)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	detail, err := h.Composer.Update(ctx, id, currentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// DeleteRecipe handles author/admin deletion of a recipe.
func (h *Handler) DeleteRecipe(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "recipe not found"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.Composer.Delete(ctx, id, currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddFavorite marks a recipe as a favorite of the requester.
func (h *Handler) AddFavorite(c *gin.Context) {
	h.addMark(c, h.Recipes.AddFavorite)
}

// RemoveFavorite removes the requester's favorite mark.
func (h *Handler) RemoveFavorite(c *gin.Context) {
	h.removeMark(c, h.Recipes.RemoveFavorite)
}

// AddToCart adds a recipe to the requester's shopping cart.
func (h *Handler) AddToCart(c *gin.Context) {
	h.addMark(c, h.Recipes.AddToCart)
}

// RemoveFromCart removes a recipe from the requester's shopping cart.
func (h *Handler) RemoveFromCart(c *gin.Context) {
	h.removeMark(c, h.Recipes.RemoveFromCart)
}

// addMark verifies the recipe exists, then lets the unique constraint
// arbitrate the insert. A successful add returns the short recipe
// representation.
func (h *Handler) addMark(c *gin.Context, add func(ctx context.Context, userID, recipeID int64) error) {
	id, err := idParam(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "recipe not found"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	r, err := h.Recipes.GetRecipe(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := add(ctx, currentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe.ShortOf(r))
}

func (h *Handler) removeMark(c *gin.Context, remove func(ctx context.Context, userID, recipeID int64) error) {
	id, err := idParam(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "recipe not found"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if _, err := h.Recipes.GetRecipe(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	if err := remove(ctx, currentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart serves the aggregated shopping list as a text
// attachment. An empty cart is a client error, never a blank file.
func (h *Handler) DownloadShoppingCart(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	user := currentUser(c)
	items, err := h.Recipes.ShoppingList(ctx, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	text := recipe.RenderShoppingList(user, items, time.Now())
	c.Header("Content-Disposition", `attachment; filename="shopping_list.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// Subscribe follows the target user.
func (h *Handler) Subscribe(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "user not found"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.Users.Follow(ctx, currentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// Unsubscribe removes the follow relation.
func (h *Handler) Unsubscribe(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "user not found"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.Users.Unfollow(ctx, currentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSubscriptions lists followed authors with their recipe counts
// and a capped recipe preview.
func (h *Handler) ListSubscriptions(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	recipesLimit := 0
	if v := c.Query("recipes_limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"recipes_limit": "must be a non-negative integer"}})
			return
		}
		recipesLimit = n
	}
	limit, offset := pagination(c)

	total, subs, err := h.Users.Subscriptions(ctx, currentUser(c).ID, recipesLimit, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": total, "results": subs})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	page := 1
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	return limit, (page - 1) * limit
}

func boolQuery(c *gin.Context, name string) bool {
	v := c.Query(name)
	return v == "1" || v == "true"
}
