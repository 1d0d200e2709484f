// Package bootstrap wires the database and Redis for the server binary.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"promptgallery/internal/cache"
	"promptgallery/internal/config"
	"promptgallery/internal/database"
	"promptgallery/internal/models"
	"promptgallery/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty gallery with generated content.
	SeedDemo bool
	Demo     seed.Options
}

// InitRuntime connects to DB and Redis and optionally runs demo seeding.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevRootAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	if opts.SeedDemo {
		if err := seedIfEmpty(context.Background(), db, opts.Demo); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo gallery: %w", err)
		}
	}

	return db, r, nil
}

func seedIfEmpty(ctx context.Context, db *gorm.DB, opts seed.Options) error {
	var images int64
	if err := db.WithContext(ctx).Model(&models.Image{}).Count(&images).Error; err != nil {
		return err
	}
	if images > 0 {
		slog.Info("gallery already has content, skipping demo seed", slog.Int64("images", images))
		return nil
	}

	s, err := seed.NewSeeder(db, opts)
	if err != nil {
		return err
	}
	_, err = s.Run(ctx)
	return err
}

// ensureDevRootAdmin creates or promotes an administrator in development when
// DEV_ROOT_PASSWORD is set.
func ensureDevRootAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || cfg.DevRootPassword == "" {
		return nil
	}

	username := strings.TrimSpace(cfg.DevRootUsername)
	if username == "" {
		username = "gallery_root"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = "root@gallery.local"
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.DevRootPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	var rootID string
	if err := db.Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.Where("email = ? OR username = ?", email, username).First(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			root = models.User{
				Username: username,
				Email:    email,
				Password: string(hashedPassword),
				Role:     models.RoleAdmin,
			}
			if err := tx.Create(&root).Error; err != nil {
				return err
			}
		case findErr != nil:
			return findErr
		default:
			if err := tx.Model(&models.User{}).Where("id = ?", root.ID).
				Update("role", models.RoleAdmin).Error; err != nil {
				return err
			}
		}
		rootID = root.ID
		return nil
	}); err != nil {
		return err
	}

	slog.Info("development root admin ensured", slog.String("user_id", rootID), slog.String("email", email))
	return nil
}
