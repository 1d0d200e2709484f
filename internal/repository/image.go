package repository

import (
	"context"
	"errors"
	"fmt"

	"promptgallery/internal/models"
	"promptgallery/internal/observability"

	"gorm.io/gorm"
)

const imageWithCommentCount = "images.*, (SELECT COUNT(*) FROM comments WHERE comments.image_id = images.id) AS comments_count"

// ImageRepository defines persistence operations for gallery images.
type ImageRepository interface {
	Create(ctx context.Context, img *models.Image) error
	GetByID(ctx context.Context, id uint) (*models.Image, error)
	ListAll(ctx context.Context) ([]models.Image, error)
	List(ctx context.Context, limit, offset int) ([]models.Image, error)
	ListByUser(ctx context.Context, userID string) ([]models.Image, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	ToggleLike(ctx context.Context, imageID uint, userID string) (bool, error)
	IncrementViews(ctx context.Context, id uint) error
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
}

// Image columns an edit may change. Views and likes only move through their
// own operations.
var updatableImageColumns = map[string]struct{}{
	"title":       {},
	"prompt":      {},
	"category_id": {},
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository returns a new ImageRepository implementation.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) withCounts(ctx context.Context) *gorm.DB {
	return readDB(r.db).WithContext(ctx).
		Model(&models.Image{}).
		Select(imageWithCommentCount).
		Preload("Likes")
}

func (r *imageRepository) Create(ctx context.Context, img *models.Image) error {
	if err := r.db.WithContext(ctx).Omit("Likes").Create(img).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *imageRepository) GetByID(ctx context.Context, id uint) (*models.Image, error) {
	var img models.Image
	if err := r.withCounts(ctx).Where("images.id = ?", id).First(&img).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Image", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &img, nil
}

// ListAll returns every image with its likes and comment count.
func (r *imageRepository) ListAll(ctx context.Context) ([]models.Image, error) {
	defer observability.TrackQuery("list_all", "images")()

	var images []models.Image
	if err := r.withCounts(ctx).Order("images.id ASC").Find(&images).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return images, nil
}

// List returns a page of images, newest first.
func (r *imageRepository) List(ctx context.Context, limit, offset int) ([]models.Image, error) {
	limit, offset = clampPage(limit, offset)
	var images []models.Image
	if err := r.withCounts(ctx).
		Order("images.created_at DESC, images.id DESC").
		Limit(limit).Offset(offset).
		Find(&images).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return images, nil
}

func (r *imageRepository) ListByUser(ctx context.Context, userID string) ([]models.Image, error) {
	var images []models.Image
	if err := r.withCounts(ctx).
		Where("images.user_id = ?", userID).
		Order("images.created_at DESC, images.id DESC").
		Find(&images).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return images, nil
}

func (r *imageRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Image{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return int(count), nil
}

// ToggleLike adds the like when absent and removes it when present. It
// reports whether the user likes the image afterwards.
func (r *imageRepository) ToggleLike(ctx context.Context, imageID uint, userID string) (bool, error) {
	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Image{}).Where("id = ?", imageID).Count(&exists).Error; err != nil {
			return models.NewInternalError(err)
		}
		if exists == 0 {
			return models.NewNotFoundError("Image", imageID)
		}

		res := tx.Where("image_id = ? AND user_id = ?", imageID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}

		if err := tx.Create(&models.Like{ImageID: imageID, UserID: userID}).Error; err != nil {
			if isUniqueConstraintError(err) {
				liked = true
				return nil
			}
			return models.NewInternalError(err)
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return liked, nil
}

// IncrementViews adds one view as a server-side delta.
func (r *imageRepository) IncrementViews(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Image{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Image", id)
	}
	return nil
}

// Update applies a partial edit restricted to updatableImageColumns.
func (r *imageRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return models.NewValidationError("No fields to update")
	}
	for col := range fields {
		if _, ok := updatableImageColumns[col]; !ok {
			return models.NewValidationError(fmt.Sprintf("Field %q cannot be updated", col))
		}
	}

	res := r.db.WithContext(ctx).Model(&models.Image{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Image", id)
	}
	return nil
}

// Delete removes the image with its likes and comments.
func (r *imageRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("image_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Where("image_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Delete(&models.Image{}, id)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Image", id)
		}
		return nil
	})
}
