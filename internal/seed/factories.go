// Package seed creates demo galleries for development and tests.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"promptgallery/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every generated profile.
const DemoPassword = "password123"

// Options control the size and shape of a demo gallery.
type Options struct {
	Users  int
	Images int
	// MaxDays spreads created_at over the last N days.
	MaxDays int
	// SkipBcrypt stores a cheap hash; only for tests.
	SkipBcrypt bool
	// RandSeed makes a run reproducible. Zero uses the clock.
	RandSeed int64
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	rng   *rand.Rand
	hash  string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}

	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	return &Factory{
		db:    db,
		opts:  opts,
		faker: gofakeit.New(seed),
		rng:   rand.New(rand.NewSource(seed)),
		hash:  string(hash),
	}, nil
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.rng.Intn(f.opts.MaxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

// CreateUser constructs and persists a profile. Experience is spread so the
// whole rank ladder is populated.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:  fmt.Sprintf("%s%d", f.faker.Username(), f.faker.Number(100, 999)),
		Email:     f.faker.Email(),
		Password:  f.hash,
		Role:      models.RoleUser,
		Exp:       f.rng.Intn(4000),
		AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		CreatedAt: f.pastTime(),
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateImage constructs and persists an image owned by owner.
func (f *Factory) CreateImage(owner *models.User, categoryID *uint, overrides ...func(*models.Image)) (*models.Image, error) {
	img := &models.Image{
		UserID:     owner.ID,
		Title:      f.faker.Sentence(4),
		Prompt:     fmt.Sprintf("%s %s, %s lighting, %s style", f.faker.Adjective(), f.faker.Noun(), f.faker.Color(), f.faker.Word()),
		ImageURL:   fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()),
		CategoryID: categoryID,
		Views:      f.rng.Intn(500),
		CreatedAt:  f.pastTime(),
	}
	for _, override := range overrides {
		override(img)
	}

	if err := f.db.Omit("Likes").Create(img).Error; err != nil {
		return nil, err
	}
	return img, nil
}

// CreateComment persists a comment by author on img.
func (f *Factory) CreateComment(img *models.Image, author *models.User) (*models.Comment, error) {
	c := &models.Comment{
		ImageID:   img.ID,
		UserID:    author.ID,
		Text:      f.faker.Sentence(f.rng.Intn(10) + 3),
		CreatedAt: f.pastTime(),
	}
	if err := f.db.Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}
