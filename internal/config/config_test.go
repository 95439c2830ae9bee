package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/foodbook?sslmode=disable")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "media", cfg.MediaDir)
	assert.Equal(t, 1, cfg.MinIngredientAmount)
	assert.Equal(t, 1, cfg.MinCookingTime)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.NotEmpty(t, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/foodbook?sslmode=disable")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("MIN_INGREDIENT_AMOUNT", "5")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MinIngredientAmount)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/foodbook?sslmode=disable")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}
