package repository

import (
	"context"

	"promptgallery/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for image comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByImage(ctx context.Context, imageID uint) ([]models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) ListByImage(ctx context.Context, imageID uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := readDB(r.db).WithContext(ctx).
		Where("image_id = ?", imageID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}
