package service

import (
	"context"
	"log/slog"
	"strings"

	"promptgallery/internal/experience"
	"promptgallery/internal/models"
	"promptgallery/internal/repository"
)

const (
	maxImageTitleLen = 120
	maxCommentLen    = 1000
	maxCategoryLen   = 50
)

// ImageService runs gallery actions and awards the experience they earn.
type ImageService struct {
	imageRepo    repository.ImageRepository
	commentRepo  repository.CommentRepository
	categoryRepo repository.CategoryRepository
	profileRepo  repository.ProfileRepository
	tracker      *experience.Tracker
}

type CreateImageInput struct {
	UserID     string
	Title      string
	Prompt     string
	ImageURL   string
	CategoryID *uint
}

// LikeResult reports the like state after a toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// NewImageService wires the gallery repositories to the experience tracker.
func NewImageService(
	imageRepo repository.ImageRepository,
	commentRepo repository.CommentRepository,
	categoryRepo repository.CategoryRepository,
	profileRepo repository.ProfileRepository,
	tracker *experience.Tracker,
) *ImageService {
	return &ImageService{
		imageRepo:    imageRepo,
		commentRepo:  commentRepo,
		categoryRepo: categoryRepo,
		profileRepo:  profileRepo,
		tracker:      tracker,
	}
}

func (s *ImageService) ListImages(ctx context.Context, limit, offset int) ([]models.Image, error) {
	return s.imageRepo.List(ctx, limit, offset)
}

func (s *ImageService) GetImage(ctx context.Context, id uint) (*models.Image, error) {
	return s.imageRepo.GetByID(ctx, id)
}

// CreateImage stores a new post and awards the post reward to its owner.
func (s *ImageService) CreateImage(ctx context.Context, in CreateImageInput) (*models.Image, error) {
	owner, err := s.actor(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > maxImageTitleLen {
		return nil, models.NewValidationError("Title too long (max 120 characters)")
	}
	if strings.TrimSpace(in.ImageURL) == "" {
		return nil, models.NewValidationError("Image URL is required")
	}
	if in.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
	}

	img := &models.Image{
		UserID:     owner.ID,
		Title:      title,
		Prompt:     strings.TrimSpace(in.Prompt),
		ImageURL:   strings.TrimSpace(in.ImageURL),
		CategoryID: in.CategoryID,
	}
	if err := s.imageRepo.Create(ctx, img); err != nil {
		return nil, err
	}

	s.award(ctx, owner, experience.ActionPost)
	return img, nil
}

// ToggleLike flips the actor's like. Only a new like earns the reward.
func (s *ImageService) ToggleLike(ctx context.Context, imageID uint, userID string) (*LikeResult, error) {
	user, err := s.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	liked, err := s.imageRepo.ToggleLike(ctx, imageID, user.ID)
	if err != nil {
		return nil, err
	}
	if liked {
		s.award(ctx, user, experience.ActionLike)
	}

	img, err := s.imageRepo.GetByID(ctx, imageID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Liked: liked, Likes: len(img.LikedBy())}, nil
}

// AddComment stores a comment and awards the comment reward to its author.
func (s *ImageService) AddComment(ctx context.Context, imageID uint, userID, text string) (*models.Comment, error) {
	user, err := s.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Comment cannot be empty")
	}
	if len(text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 1000 characters)")
	}
	if _, err := s.imageRepo.GetByID(ctx, imageID); err != nil {
		return nil, err
	}

	comment := &models.Comment{ImageID: imageID, UserID: user.ID, Text: text}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	s.award(ctx, user, experience.ActionComment)
	return comment, nil
}

func (s *ImageService) ListComments(ctx context.Context, imageID uint) ([]models.Comment, error) {
	return s.commentRepo.ListByImage(ctx, imageID)
}

// RecordView counts one view of the image.
func (s *ImageService) RecordView(ctx context.Context, imageID uint) error {
	return s.imageRepo.IncrementViews(ctx, imageID)
}

func (s *ImageService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.List(ctx)
}

// CreateCategory is restricted to administrators.
func (s *ImageService) CreateCategory(ctx context.Context, actorID, name string) (*models.Category, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	name, err := categoryName(name)
	if err != nil {
		return nil, err
	}

	category := &models.Category{Name: name}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// RenameCategory is restricted to administrators.
func (s *ImageService) RenameCategory(ctx context.Context, actorID string, id uint, name string) (*models.Category, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	name, err := categoryName(name)
	if err != nil {
		return nil, err
	}
	return s.categoryRepo.Rename(ctx, id, name)
}

// DeleteCategory removes a category and leaves its images uncategorized.
func (s *ImageService) DeleteCategory(ctx context.Context, actorID string, id uint) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	return s.categoryRepo.Delete(ctx, id)
}

// UpdateImageInput is a partial image edit. Nil fields are left unchanged.
type UpdateImageInput struct {
	Title         *string
	Prompt        *string
	CategoryID    *uint
	ClearCategory bool
}

// UpdateImage edits title, prompt or category. Owners and administrators only.
func (s *ImageService) UpdateImage(ctx context.Context, actorID string, imageID uint, in UpdateImageInput) (*models.Image, error) {
	if _, err := s.ownedImage(ctx, actorID, imageID, "You cannot edit this image"); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("Title is required")
		}
		if len(title) > maxImageTitleLen {
			return nil, models.NewValidationError("Title too long (max 120 characters)")
		}
		fields["title"] = title
	}
	if in.Prompt != nil {
		fields["prompt"] = strings.TrimSpace(*in.Prompt)
	}
	switch {
	case in.ClearCategory:
		fields["category_id"] = nil
	case in.CategoryID != nil:
		if _, err := s.categoryRepo.GetByID(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *in.CategoryID
	}
	if len(fields) == 0 {
		return nil, models.NewValidationError("No fields to update")
	}

	if err := s.imageRepo.Update(ctx, imageID, fields); err != nil {
		return nil, err
	}
	return s.imageRepo.GetByID(ctx, imageID)
}

// DeleteImage removes an image with its likes and comments. Owners and
// administrators only. Earned experience is kept.
func (s *ImageService) DeleteImage(ctx context.Context, actorID string, imageID uint) error {
	if _, err := s.ownedImage(ctx, actorID, imageID, "You cannot delete this image"); err != nil {
		return err
	}
	return s.imageRepo.Delete(ctx, imageID)
}

// ListUserImages returns the gallery of one profile, newest first.
func (s *ImageService) ListUserImages(ctx context.Context, userID string) ([]models.Image, error) {
	if _, err := s.profileRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.imageRepo.ListByUser(ctx, userID)
}

func (s *ImageService) ownedImage(ctx context.Context, actorID string, imageID uint, denied string) (*models.Image, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	img, err := s.imageRepo.GetByID(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if img.UserID != actor.ID && !actor.IsAdmin() {
		return nil, models.NewForbiddenError(denied)
	}
	return img, nil
}

func (s *ImageService) requireAdmin(ctx context.Context, actorID string) error {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return models.NewForbiddenError("Only administrators can manage categories")
	}
	return nil
}

func categoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.NewValidationError("Category name is required")
	}
	if len(name) > maxCategoryLen {
		return "", models.NewValidationError("Category name too long (max 50 characters)")
	}
	return name, nil
}

func (s *ImageService) actor(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	user, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("unknown user")
		}
		return nil, err
	}
	return user, nil
}

// award reports reward failures without failing the action that earned them.
// The tracker has already rolled back and notified the user.
func (s *ImageService) award(ctx context.Context, user *models.User, action experience.Action) {
	if err := s.tracker.Award(ctx, user, action); err != nil {
		slog.WarnContext(ctx, "experience reward failed",
			slog.String("user_id", user.ID),
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
	}
}
