package users

// User is the authenticated identity's profile row. Account
// provisioning and login live in an external identity provider; this
// service only reads profiles.
type User struct {
	ID        int64  `json:"id" db:"id"`
	Username  string `json:"username" db:"username"`
	Email     string `json:"email" db:"email"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	IsAdmin   bool   `json:"-" db:"is_admin"`
}

// DisplayName returns the human-readable name for exports.
func (u *User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Profile is a user as seen by a particular viewer.
type Profile struct {
	User
	IsSubscribed bool `json:"is_subscribed"`
}

// RecipePreview is the capped recipe representation embedded in a
// subscription listing.
type RecipePreview struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Image       string `json:"image" db:"image"`
	CookingTime int    `json:"cooking_time" db:"cooking_time"`
}

// Subscription is a followed author annotated with their recipes.
type Subscription struct {
	Profile
	Recipes      []RecipePreview `json:"recipes"`
	RecipesCount int             `json:"recipes_count"`
}
