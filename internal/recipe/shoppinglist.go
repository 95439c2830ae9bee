package recipe

import (
	"fmt"
	"strings"
	"time"

	"foodbook/internal/users"
)

// RenderShoppingList produces the plain-text export for a set of
// aggregated shopping items. Items are expected in ingredient-name
// order, as returned by the aggregator.
func RenderShoppingList(user *users.User, items []ShoppingItem, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shopping list for %s\n", user.DisplayName())
	fmt.Fprintf(&b, "Generated on %s\n\n", now.Format("02 Jan 2006"))
	for _, item := range items {
		fmt.Fprintf(&b, "- %s (%s) - %d\n", item.Name, item.MeasurementUnit, item.Total)
	}
	return b.String()
}
