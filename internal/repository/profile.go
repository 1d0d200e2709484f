package repository

import (
	"context"
	"errors"
	"fmt"

	"promptgallery/internal/cache"
	"promptgallery/internal/models"
	"promptgallery/internal/observability"

	"gorm.io/gorm"
)

// Profile columns that Update may change. Experience only moves through
// ApplyExpDelta.
var updatableProfileColumns = map[string]struct{}{
	"username":           {},
	"avatar_url":         {},
	"role":               {},
	"custom_title":       {},
	"custom_title_color": {},
}

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id string, fields map[string]any) error
	ApplyExpDelta(ctx context.Context, id string, amount int) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.ProfileKey(id), &user, cache.ProfileTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no profile uses email.
func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByUsername returns nil, nil when no profile uses username.
func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// ListAll returns every profile, oldest first.
func (r *profileRepository) ListAll(ctx context.Context) ([]models.User, error) {
	defer observability.TrackQuery("list_all", "profiles")()

	var users []models.User
	if err := readDB(r.db).WithContext(ctx).Order("created_at ASC, id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *profileRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	limit, offset = clampPage(limit, offset)
	var users []models.User
	if err := readDB(r.db).WithContext(ctx).
		Order("created_at ASC, id ASC").
		Limit(limit).Offset(offset).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *profileRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update writes only the given columns. Unknown columns are rejected.
func (r *profileRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return models.NewValidationError("no fields to update")
	}
	for col := range fields {
		if _, ok := updatableProfileColumns[col]; !ok {
			return models.NewValidationError(fmt.Sprintf("field %q cannot be updated", col))
		}
	}

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewValidationError("Username is already taken")
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateProfile(ctx, id)
	return nil
}

// ApplyExpDelta adds amount to the stored experience in a single statement
// so concurrent deltas commute.
func (r *profileRepository) ApplyExpDelta(ctx context.Context, id string, amount int) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("exp", gorm.Expr("exp + ?", amount))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateProfile(ctx, id)
	return nil
}
