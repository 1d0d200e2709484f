package repository

import (
	"context"

	"promptgallery/internal/cache"
	"promptgallery/internal/models"

	"gorm.io/gorm"
)

// RankTierRepository stores the rank ladder. Callers validate before writing.
type RankTierRepository interface {
	ListAll(ctx context.Context) ([]models.RankTier, error)
	ReplaceAll(ctx context.Context, tiers []models.RankTier) error
}

type rankTierRepository struct {
	db *gorm.DB
}

// NewRankTierRepository returns a new RankTierRepository implementation.
func NewRankTierRepository(db *gorm.DB) RankTierRepository {
	return &rankTierRepository{db: db}
}

func (r *rankTierRepository) ListAll(ctx context.Context) ([]models.RankTier, error) {
	var tiers []models.RankTier
	err := cache.Aside(ctx, cache.RankTiersKey, &tiers, cache.RankTiersTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Order("required_exp ASC, id ASC").Find(&tiers).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

// ReplaceAll swaps the whole ladder in one transaction.
func (r *rankTierRepository) ReplaceAll(ctx context.Context, tiers []models.RankTier) error {
	rows := make([]models.RankTier, len(tiers))
	for i, t := range tiers {
		t.ID = 0
		rows[i] = t
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.RankTier{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateRankTiers(ctx)
	return nil
}
