// Command seed populates the database with a demo gallery.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"promptgallery/internal/cache"
	"promptgallery/internal/config"
	"promptgallery/internal/database"
	"promptgallery/internal/middleware"
	"promptgallery/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of profiles to create")
	numImages := flag.Int("images", 200, "Number of images to create")
	shouldClean := flag.Bool("clean", true, "Clean gallery content before seeding")
	randSeed := flag.Int64("rand-seed", 0, "Seed for reproducible data (0 uses the clock)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	middleware.InitLogger(cfg.Env)
	if cfg.IsProduction() {
		slog.Error("refusing to seed a production database")
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cache.InitRedis(cfg.RedisURL)

	s, err := seed.NewSeeder(db, seed.Options{Users: *numUsers, Images: *numImages, RandSeed: *randSeed})
	if err != nil {
		slog.Error("failed to create seeder", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			slog.Error("cleanup failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if _, err := s.Run(ctx); err != nil {
		slog.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("all test profiles share one password", slog.String("password", seed.DemoPassword))
}
