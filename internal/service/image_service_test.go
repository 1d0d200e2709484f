package service

import (
	"context"
	"errors"
	"testing"

	"promptgallery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type imageFixture struct {
	profiles   *MockProfileRepository
	images     *imageRepoStub
	comments   *commentRepoStub
	categories *categoryRepoStub
	svc        *ImageService
}

func newImageFixture() *imageFixture {
	f := &imageFixture{
		profiles:   new(MockProfileRepository),
		images:     noopImageRepo(),
		comments:   &commentRepoStub{},
		categories: &categoryRepoStub{categories: []models.Category{{ID: 1, Name: "Portraits"}}},
	}
	f.profiles.On("GetByID", mock.Anything, "u1").Return(&models.User{ID: "u1", Exp: 0}, nil).Maybe()
	f.profiles.On("GetByID", mock.Anything, "admin").Return(&models.User{ID: "admin", Role: models.RoleAdmin}, nil).Maybe()
	f.profiles.On("GetByID", mock.Anything, "ghost").Return(nil, models.NewNotFoundError("User", "ghost")).Maybe()
	f.svc = NewImageService(f.images, f.comments, f.categories, f.profiles, newTracker(f.profiles))
	return f
}

func TestImageService_CreateImageAwardsPostReward(t *testing.T) {
	f := newImageFixture()
	f.profiles.On("ApplyExpDelta", mock.Anything, "u1", 50).Return(nil).Once()
	var saved *models.Image
	f.images.createFn = func(_ context.Context, img *models.Image) error {
		img.ID = 7
		saved = img
		return nil
	}
	cat := uint(1)

	img, err := f.svc.CreateImage(context.Background(), CreateImageInput{
		UserID:     "u1",
		Title:      "  Neon city ",
		Prompt:     "a neon city",
		ImageURL:   "https://cdn/1.png",
		CategoryID: &cat,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(7), img.ID)
	require.NotNil(t, saved)
	assert.Equal(t, "Neon city", saved.Title)
	assert.Equal(t, "u1", saved.UserID)
	f.profiles.AssertExpectations(t)
}

func TestImageService_CreateImageValidation(t *testing.T) {
	f := newImageFixture()
	ctx := context.Background()

	_, err := f.svc.CreateImage(ctx, CreateImageInput{UserID: "", Title: "t", ImageURL: "u"})
	assertCode(t, err, models.CodeUnauthorized)

	_, err = f.svc.CreateImage(ctx, CreateImageInput{UserID: "ghost", Title: "t", ImageURL: "u"})
	assertCode(t, err, models.CodeUnauthorized)

	_, err = f.svc.CreateImage(ctx, CreateImageInput{UserID: "u1", Title: " ", ImageURL: "u"})
	assertCode(t, err, models.CodeValidation)

	_, err = f.svc.CreateImage(ctx, CreateImageInput{UserID: "u1", Title: "t"})
	assertCode(t, err, models.CodeValidation)

	missing := uint(99)
	_, err = f.svc.CreateImage(ctx, CreateImageInput{UserID: "u1", Title: "t", ImageURL: "u", CategoryID: &missing})
	assertCode(t, err, models.CodeNotFound)

	f.profiles.AssertNotCalled(t, "ApplyExpDelta", mock.Anything, mock.Anything, mock.Anything)
}

func TestImageService_ToggleLike(t *testing.T) {
	f := newImageFixture()
	f.profiles.On("ApplyExpDelta", mock.Anything, "u1", 5).Return(nil).Once()

	liked := false
	f.images.toggleLikeFn = func(context.Context, uint, string) (bool, error) {
		liked = !liked
		return liked, nil
	}
	f.images.getByIDFn = func(_ context.Context, id uint) (*models.Image, error) {
		img := &models.Image{ID: id}
		if liked {
			img.Likes = []models.Like{{UserID: "u1"}}
		}
		return img, nil
	}

	res, err := f.svc.ToggleLike(context.Background(), 3, "u1")
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.Likes)

	res, err = f.svc.ToggleLike(context.Background(), 3, "u1")
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Zero(t, res.Likes)

	// Only the first toggle earned experience.
	f.profiles.AssertNumberOfCalls(t, "ApplyExpDelta", 1)
}

func TestImageService_AddComment(t *testing.T) {
	f := newImageFixture()
	f.profiles.On("ApplyExpDelta", mock.Anything, "u1", 10).Return(nil).Once()

	c, err := f.svc.AddComment(context.Background(), 3, "u1", "  lovely  ")
	require.NoError(t, err)
	assert.Equal(t, "lovely", c.Text)

	list, err := f.svc.ListComments(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.AddComment(context.Background(), 3, "u1", "   ")
	assertCode(t, err, models.CodeValidation)

	f.images.getByIDFn = func(_ context.Context, id uint) (*models.Image, error) {
		return nil, models.NewNotFoundError("Image", id)
	}
	_, err = f.svc.AddComment(context.Background(), 42, "u1", "hi")
	assertCode(t, err, models.CodeNotFound)
	f.profiles.AssertExpectations(t)
}

func TestImageService_RewardFailureKeepsAction(t *testing.T) {
	f := newImageFixture()
	f.profiles.On("ApplyExpDelta", mock.Anything, "u1", 10).Return(errors.New("write timeout"))

	c, err := f.svc.AddComment(context.Background(), 3, "u1", "still saved")
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
}

func TestImageService_RecordView(t *testing.T) {
	f := newImageFixture()
	views := 0
	f.images.incrementViewsFn = func(context.Context, uint) error {
		views++
		return nil
	}

	require.NoError(t, f.svc.RecordView(context.Background(), 1))
	require.NoError(t, f.svc.RecordView(context.Background(), 1))
	assert.Equal(t, 2, views)
}

func TestImageService_CreateCategory(t *testing.T) {
	f := newImageFixture()
	ctx := context.Background()

	_, err := f.svc.CreateCategory(ctx, "u1", "Landscapes")
	assert.True(t, models.IsForbidden(err))

	_, err = f.svc.CreateCategory(ctx, "admin", " ")
	assertCode(t, err, models.CodeValidation)

	c, err := f.svc.CreateCategory(ctx, "admin", " Landscapes ")
	require.NoError(t, err)
	assert.Equal(t, "Landscapes", c.Name)

	_, err = f.svc.CreateCategory(ctx, "admin", "Portraits")
	assertCode(t, err, models.CodeValidation)

	list, err := f.svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func ownedBy(owner string) func(context.Context, uint) (*models.Image, error) {
	return func(_ context.Context, id uint) (*models.Image, error) {
		return &models.Image{ID: id, UserID: owner, Title: "old"}, nil
	}
}

func TestImageService_UpdateImage(t *testing.T) {
	f := newImageFixture()
	f.images.getByIDFn = ownedBy("u1")
	var fields map[string]any
	f.images.updateFn = func(_ context.Context, _ uint, got map[string]any) error {
		fields = got
		return nil
	}
	cat := uint(1)

	_, err := f.svc.UpdateImage(context.Background(), "u1", 3, UpdateImageInput{
		Title:      strPtr("  New title "),
		Prompt:     strPtr("new prompt"),
		CategoryID: &cat,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "New title", "prompt": "new prompt", "category_id": uint(1)}, fields)

	_, err = f.svc.UpdateImage(context.Background(), "u1", 3, UpdateImageInput{ClearCategory: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"category_id": nil}, fields)
}

func TestImageService_UpdateImageRules(t *testing.T) {
	f := newImageFixture()
	f.images.getByIDFn = ownedBy("someone-else")
	f.images.updateFn = func(context.Context, uint, map[string]any) error { return nil }
	ctx := context.Background()

	_, err := f.svc.UpdateImage(ctx, "u1", 3, UpdateImageInput{Title: strPtr("x")})
	assertCode(t, err, models.CodeForbidden)

	_, err = f.svc.UpdateImage(ctx, "admin", 3, UpdateImageInput{Title: strPtr("x")})
	assert.NoError(t, err, "administrators may edit any image")

	_, err = f.svc.UpdateImage(ctx, "admin", 3, UpdateImageInput{Title: strPtr("   ")})
	assertCode(t, err, models.CodeValidation)
	_, err = f.svc.UpdateImage(ctx, "admin", 3, UpdateImageInput{})
	assertCode(t, err, models.CodeValidation)

	missing := uint(42)
	_, err = f.svc.UpdateImage(ctx, "admin", 3, UpdateImageInput{CategoryID: &missing})
	assertCode(t, err, models.CodeNotFound)

	_, err = f.svc.UpdateImage(ctx, "", 3, UpdateImageInput{Title: strPtr("x")})
	assertCode(t, err, models.CodeUnauthorized)
}

func TestImageService_DeleteImage(t *testing.T) {
	f := newImageFixture()
	f.images.getByIDFn = ownedBy("u1")
	var deleted []uint
	f.images.deleteFn = func(_ context.Context, id uint) error {
		deleted = append(deleted, id)
		return nil
	}
	f.profiles.On("GetByID", mock.Anything, "u2").Return(&models.User{ID: "u2"}, nil)
	ctx := context.Background()

	assertCode(t, f.svc.DeleteImage(ctx, "u2", 5), models.CodeForbidden)
	assert.Empty(t, deleted)

	require.NoError(t, f.svc.DeleteImage(ctx, "u1", 5))
	require.NoError(t, f.svc.DeleteImage(ctx, "admin", 6))
	assert.Equal(t, []uint{5, 6}, deleted)

	f.images.getByIDFn = func(_ context.Context, id uint) (*models.Image, error) {
		return nil, models.NewNotFoundError("Image", id)
	}
	assertCode(t, f.svc.DeleteImage(ctx, "u1", 7), models.CodeNotFound)
}

func TestImageService_ListUserImages(t *testing.T) {
	f := newImageFixture()
	f.images.listByUserFn = func(_ context.Context, userID string) ([]models.Image, error) {
		return []models.Image{{ID: 1, UserID: userID}}, nil
	}

	imgs, err := f.svc.ListUserImages(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, "u1", imgs[0].UserID)

	_, err = f.svc.ListUserImages(context.Background(), "ghost")
	assertCode(t, err, models.CodeNotFound)
}

func TestImageService_RenameAndDeleteCategory(t *testing.T) {
	f := newImageFixture()
	ctx := context.Background()

	_, err := f.svc.RenameCategory(ctx, "u1", 1, "Faces")
	assertCode(t, err, models.CodeForbidden)
	assertCode(t, f.svc.DeleteCategory(ctx, "u1", 1), models.CodeForbidden)

	_, err = f.svc.RenameCategory(ctx, "admin", 1, " ")
	assertCode(t, err, models.CodeValidation)

	cat, err := f.svc.RenameCategory(ctx, "admin", 1, " Faces ")
	require.NoError(t, err)
	assert.Equal(t, "Faces", cat.Name)

	require.NoError(t, f.svc.DeleteCategory(ctx, "admin", 1))
	assert.Empty(t, f.categories.categories)
	assertCode(t, f.svc.DeleteCategory(ctx, "admin", 1), models.CodeNotFound)
}
