package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config represents the application configuration, populated from the
// environment (a local .env file is honored when present).
type Config struct {
	Addr        string `validate:"required"`
	DatabaseURL string `validate:"required"`
	JWTSecret   string `validate:"required,min=16"`
	MediaDir    string `validate:"required"`

	// Validation thresholds for the recipe composer.
	MinIngredientAmount int `validate:"min=1"`
	MinCookingTime      int `validate:"min=1"`

	CORSOrigins []string
	LogLevel    string
	LogFormat   string

	// RequestTimeout bounds every store call made on behalf of a request.
	RequestTimeout time.Duration `validate:"required"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// Best effort; absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:                getEnv("ADDR", ":8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		MediaDir:            getEnv("MEDIA_DIR", "media"),
		MinIngredientAmount: getEnvInt("MIN_INGREDIENT_AMOUNT", 1),
		MinCookingTime:      getEnvInt("MIN_COOKING_TIME", 1),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
		RequestTimeout:      getEnvDuration("REQUEST_TIMEOUT", 5*time.Second),
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitAndTrim(origins)
	} else {
		cfg.CORSOrigins = []string{"http://localhost:3000"}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
