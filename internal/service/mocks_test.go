package service

import (
	"context"

	"promptgallery/internal/experience"
	"promptgallery/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockProfileRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockProfileRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockProfileRepository) ListAll(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockProfileRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockProfileRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockProfileRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockProfileRepository) ApplyExpDelta(ctx context.Context, id string, amount int) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

type MockRankTierRepository struct {
	mock.Mock
}

func (m *MockRankTierRepository) ListAll(ctx context.Context) ([]models.RankTier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RankTier), args.Error(1)
}

func (m *MockRankTierRepository) ReplaceAll(ctx context.Context, tiers []models.RankTier) error {
	args := m.Called(ctx, tiers)
	return args.Error(0)
}

type imageRepoStub struct {
	createFn         func(context.Context, *models.Image) error
	getByIDFn        func(context.Context, uint) (*models.Image, error)
	listAllFn        func(context.Context) ([]models.Image, error)
	listFn           func(context.Context, int, int) ([]models.Image, error)
	listByUserFn     func(context.Context, string) ([]models.Image, error)
	countByUserFn    func(context.Context, string) (int, error)
	toggleLikeFn     func(context.Context, uint, string) (bool, error)
	incrementViewsFn func(context.Context, uint) error
	updateFn         func(context.Context, uint, map[string]any) error
	deleteFn         func(context.Context, uint) error
}

func (s *imageRepoStub) Create(ctx context.Context, img *models.Image) error {
	return s.createFn(ctx, img)
}
func (s *imageRepoStub) GetByID(ctx context.Context, id uint) (*models.Image, error) {
	return s.getByIDFn(ctx, id)
}
func (s *imageRepoStub) ListAll(ctx context.Context) ([]models.Image, error) {
	return s.listAllFn(ctx)
}
func (s *imageRepoStub) List(ctx context.Context, limit, offset int) ([]models.Image, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *imageRepoStub) ListByUser(ctx context.Context, userID string) ([]models.Image, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *imageRepoStub) CountByUser(ctx context.Context, userID string) (int, error) {
	return s.countByUserFn(ctx, userID)
}
func (s *imageRepoStub) ToggleLike(ctx context.Context, imageID uint, userID string) (bool, error) {
	return s.toggleLikeFn(ctx, imageID, userID)
}
func (s *imageRepoStub) IncrementViews(ctx context.Context, id uint) error {
	return s.incrementViewsFn(ctx, id)
}
func (s *imageRepoStub) Update(ctx context.Context, id uint, fields map[string]any) error {
	return s.updateFn(ctx, id, fields)
}
func (s *imageRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopImageRepo() *imageRepoStub {
	return &imageRepoStub{
		createFn:         func(context.Context, *models.Image) error { return nil },
		getByIDFn:        func(_ context.Context, id uint) (*models.Image, error) { return &models.Image{ID: id}, nil },
		listAllFn:        func(context.Context) ([]models.Image, error) { return nil, nil },
		listFn:           func(context.Context, int, int) ([]models.Image, error) { return nil, nil },
		listByUserFn:     func(context.Context, string) ([]models.Image, error) { return nil, nil },
		countByUserFn:    func(context.Context, string) (int, error) { return 0, nil },
		toggleLikeFn:     func(context.Context, uint, string) (bool, error) { return true, nil },
		incrementViewsFn: func(context.Context, uint) error { return nil },
		updateFn:         func(context.Context, uint, map[string]any) error { return nil },
		deleteFn:         func(context.Context, uint) error { return nil },
	}
}

type commentRepoStub struct {
	created []models.Comment
	err     error
}

func (s *commentRepoStub) Create(_ context.Context, c *models.Comment) error {
	if s.err != nil {
		return s.err
	}
	c.ID = uint(len(s.created) + 1)
	s.created = append(s.created, *c)
	return nil
}

func (s *commentRepoStub) ListByImage(_ context.Context, imageID uint) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range s.created {
		if c.ImageID == imageID {
			out = append(out, c)
		}
	}
	return out, nil
}

type categoryRepoStub struct {
	categories []models.Category
}

func (s *categoryRepoStub) List(context.Context) ([]models.Category, error) {
	return s.categories, nil
}

func (s *categoryRepoStub) GetByID(_ context.Context, id uint) (*models.Category, error) {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return &s.categories[i], nil
		}
	}
	return nil, models.NewNotFoundError("Category", id)
}

func (s *categoryRepoStub) Create(_ context.Context, c *models.Category) error {
	for _, existing := range s.categories {
		if existing.Name == c.Name {
			return models.NewValidationError("Category already exists")
		}
	}
	c.ID = uint(len(s.categories) + 1)
	s.categories = append(s.categories, *c)
	return nil
}

func (s *categoryRepoStub) Rename(_ context.Context, id uint, name string) (*models.Category, error) {
	for i := range s.categories {
		if s.categories[i].Name == name && s.categories[i].ID != id {
			return nil, models.NewValidationError("Category already exists")
		}
	}
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories[i].Name = name
			cp := s.categories[i]
			return &cp, nil
		}
	}
	return nil, models.NewNotFoundError("Category", id)
}

func (s *categoryRepoStub) Delete(_ context.Context, id uint) error {
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return models.NewNotFoundError("Category", id)
}

// newTracker builds a tracker whose store is the profile mock and whose
// mirror lives in process.
func newTracker(profiles *MockProfileRepository) *experience.Tracker {
	return experience.NewTracker(profiles, nil, nil)
}

func assertCode(t interface {
	Helper()
	Errorf(string, ...any)
}, err error, code string) {
	t.Helper()
	if got := models.ErrorCode(err); got != code {
		t.Errorf("expected error code %q, got %q (err=%v)", code, got, err)
	}
}
