package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveSlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Breakfast", "breakfast"},
		{"Late Night Snack", "late-night-snack"},
		{"  Spicy   Food  ", "spicy-food"},
		{"Low-Carb (Keto)", "low-carb-keto"},
		{"5 o'clock tea", "5-o-clock-tea"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveSlug(tt.name), "input %q", tt.name)
	}
}
