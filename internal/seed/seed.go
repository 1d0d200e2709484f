package seed

import (
	"context"
	"fmt"
	"log/slog"

	"promptgallery/internal/cache"
	"promptgallery/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var demoCategories = []string{"Portraits", "Landscapes", "Abstract", "Sci-Fi", "Architecture"}

// Summary counts what a seeding run created.
type Summary struct {
	Users      int
	Images     int
	Likes      int
	Comments   int
	Categories int
}

// Seeder fills a database with a demo gallery.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	if opts.Users <= 0 {
		opts.Users = 50
	}
	if opts.Images < 0 {
		opts.Images = 0
	}
	factory, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, factory: factory, opts: opts}, nil
}

// ClearAll removes gallery content and profiles. Rank tiers are kept.
// Cached profiles and the shared experience mirror are dropped with them.
func (s *Seeder) ClearAll(ctx context.Context) error {
	var profileIDs []string
	if err := s.db.WithContext(ctx).Model(&models.User{}).Pluck("id", &profileIDs).Error; err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}

	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{&models.Like{}, &models.Comment{}, &models.Image{}, &models.Category{}, &models.User{}} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}

	for _, id := range profileIDs {
		cache.InvalidateProfile(ctx, id)
	}
	cache.Invalidate(ctx, cache.ExpMirrorKey)

	slog.InfoContext(ctx, "demo data cleared", slog.Int("profiles", len(profileIDs)))
	return nil
}

// Run creates categories, profiles, images, likes and comments.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	db := s.db.WithContext(ctx)

	categories := make([]models.Category, 0, len(demoCategories))
	for _, name := range demoCategories {
		categories = append(categories, models.Category{Name: name})
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
		return sum, fmt.Errorf("seed categories: %w", err)
	}
	categories = nil
	if err := db.Order("id").Find(&categories).Error; err != nil {
		return sum, fmt.Errorf("load categories: %w", err)
	}
	sum.Categories = len(categories)

	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return sum, fmt.Errorf("seed user %d: %w", i, err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)

	rng := s.factory.rng
	for i := 0; i < s.opts.Images; i++ {
		owner := users[rng.Intn(len(users))]
		var categoryID *uint
		if len(categories) > 0 && rng.Intn(4) > 0 {
			id := categories[rng.Intn(len(categories))].ID
			categoryID = &id
		}
		img, err := s.factory.CreateImage(owner, categoryID)
		if err != nil {
			return sum, fmt.Errorf("seed image %d: %w", i, err)
		}
		sum.Images++

		// Each liker is picked once per image, so likes stay a set.
		for _, idx := range rng.Perm(len(users))[:rng.Intn(len(users)+1)] {
			if err := db.Create(&models.Like{ImageID: img.ID, UserID: users[idx].ID}).Error; err != nil {
				return sum, fmt.Errorf("seed like: %w", err)
			}
			sum.Likes++
		}

		for c := rng.Intn(4); c > 0; c-- {
			if _, err := s.factory.CreateComment(img, users[rng.Intn(len(users))]); err != nil {
				return sum, fmt.Errorf("seed comment: %w", err)
			}
			sum.Comments++
		}
	}

	slog.InfoContext(ctx, "demo gallery seeded",
		slog.Int("users", sum.Users),
		slog.Int("images", sum.Images),
		slog.Int("likes", sum.Likes),
		slog.Int("comments", sum.Comments))
	return sum, nil
}
