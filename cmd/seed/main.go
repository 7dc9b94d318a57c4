package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/kcgaragesales/kc-garage-sales/internal/config"
	"github.com/kcgaragesales/kc-garage-sales/internal/db"
	"github.com/kcgaragesales/kc-garage-sales/internal/geocoding"
	"github.com/kcgaragesales/kc-garage-sales/internal/sales"
	"github.com/kcgaragesales/kc-garage-sales/internal/seeds"
)

// Seeds demo listings through the normal submission workflow, with captcha,
// photos and email turned off.
func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read configuration")
	}

	d, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	if err := sales.Init(d); err != nil {
		log.Fatal().Err(err).Msg("Schema setup failed")
	}

	geocoder, err := geocoding.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Geocoder setup failed")
	}

	repo := sales.NewGormRepository(d)
	svc := sales.NewService(sales.Deps{
		Repo:     repo,
		Geocoder: geocoder,
		Location: cfg.Location(),
	})

	if err := seeds.SeedListings(context.Background(), svc, repo); err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}
}
