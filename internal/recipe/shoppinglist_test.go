package recipe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"foodbook/internal/users"
)

func TestRenderShoppingList(t *testing.T) {
	user := &users.User{Username: "chef", FirstName: "Ivan", LastName: "Ivanov"}
	items := []ShoppingItem{
		{Name: "egg", MeasurementUnit: "pcs", Total: 2},
		{Name: "flour", MeasurementUnit: "g", Total: 300},
		{Name: "milk", MeasurementUnit: "ml", Total: 50},
	}
	now := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

	got := RenderShoppingList(user, items, now)
	want := "Shopping list for Ivan Ivanov\n" +
		"Generated on 15 Mar 2024\n\n" +
		"- egg (pcs) - 2\n" +
		"- flour (g) - 300\n" +
		"- milk (ml) - 50\n"
	assert.Equal(t, want, got)
}

func TestRenderShoppingListFallsBackToUsername(t *testing.T) {
	user := &users.User{Username: "chef"}
	got := RenderShoppingList(user, nil, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC))
	assert.Contains(t, got, "Shopping list for chef\n")
}
