package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"foodbook/internal/api"
	"foodbook/internal/catalog"
	"foodbook/internal/config"
	"foodbook/internal/logging"
	"foodbook/internal/media"
	"foodbook/internal/recipe"
	"foodbook/internal/storage"
	"foodbook/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	mediaStore, err := media.NewStore(cfg.MediaDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare media directory")
	}

	catalogStore := catalog.NewPostgresStore(db)
	userStore := users.NewPostgresStore(db)
	recipeStore := recipe.NewPostgresStore(db)
	composer := recipe.NewComposer(recipeStore, catalogStore, cfg.MinIngredientAmount, cfg.MinCookingTime)

	handler := api.NewHandler(recipeStore, composer, catalogStore, userStore, mediaStore, cfg.JWTSecret, cfg.RequestTimeout)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	handler.Register(r)
	r.Static("/media", cfg.MediaDir)

	log.Info().Str("addr", cfg.Addr).Msg("starting server")
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
