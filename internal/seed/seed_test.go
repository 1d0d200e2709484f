package seed

import (
	"context"
	"testing"

	"promptgallery/internal/cache"
	"promptgallery/internal/database"
	"promptgallery/internal/leaderboard"
	"promptgallery/internal/models"
	"promptgallery/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestSeeder_Run(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	s, err := NewSeeder(db, Options{Users: 6, Images: 15, SkipBcrypt: true, RandSeed: 42})
	require.NoError(t, err)

	sum, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Users)
	assert.Equal(t, 15, sum.Images)
	assert.Equal(t, len(demoCategories), sum.Categories)

	var likes int64
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	assert.Equal(t, int64(sum.Likes), likes)

	// The seeded data feeds the leaderboard without surprises.
	users, err := repository.NewProfileRepository(db).ListAll(ctx)
	require.NoError(t, err)
	images, err := repository.NewImageRepository(db).ListAll(ctx)
	require.NoError(t, err)
	stats := leaderboard.Aggregate(users, images, leaderboard.DefaultWeights())
	require.Len(t, stats, 6)

	total := 0
	for _, st := range stats {
		total += st.TotalPosts
		assert.GreaterOrEqual(t, st.Score, 0)
	}
	assert.Equal(t, 15, total)

	var u models.User
	require.NoError(t, db.First(&u).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(DemoPassword)))
}

func TestSeeder_RunTwiceKeepsCategoriesUnique(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	s, err := NewSeeder(db, Options{Users: 2, Images: 1, SkipBcrypt: true, RandSeed: 7})
	require.NoError(t, err)
	_, err = s.Run(ctx)
	require.NoError(t, err)
	sum, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(demoCategories), sum.Categories)
}

func TestSeeder_ClearAll(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	require.NoError(t, db.Create(&models.RankTier{Name: "Member", RequiredExp: 0}).Error)

	s, err := NewSeeder(db, Options{Users: 3, Images: 4, SkipBcrypt: true, RandSeed: 1})
	require.NoError(t, err)
	_, err = s.Run(ctx)
	require.NoError(t, err)

	require.NoError(t, s.ClearAll(ctx))

	for _, m := range []any{&models.User{}, &models.Image{}, &models.Like{}, &models.Comment{}, &models.Category{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T", m)
	}
	var tiers int64
	require.NoError(t, db.Model(&models.RankTier{}).Count(&tiers).Error)
	assert.Equal(t, int64(1), tiers)
}

func TestSeeder_ClearAllDropsCachedExperience(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	s, err := NewSeeder(db, Options{Users: 2, Images: 1, SkipBcrypt: true, RandSeed: 5})
	require.NoError(t, err)
	_, err = s.Run(ctx)
	require.NoError(t, err)

	var ids []string
	require.NoError(t, db.Model(&models.User{}).Pluck("id", &ids).Error)
	require.Len(t, ids, 2)

	mirror := cache.NewExpMirror(rdb)
	for _, id := range ids {
		require.NoError(t, mr.Set(cache.ProfileKey(id), `{"id":"`+id+`"}`))
		_, err := mirror.Seed(ctx, id, 40)
		require.NoError(t, err)
	}
	mr.HSet(cache.ExpMirrorKey, "someone-else", "7")
	require.NoError(t, mr.Set(cache.RankTiersKey, "[]"))

	require.NoError(t, s.ClearAll(ctx))

	for _, id := range ids {
		assert.False(t, mr.Exists(cache.ProfileKey(id)), id)
		_, ok, err := mirror.Value(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok, id)
	}
	assert.False(t, mr.Exists(cache.ExpMirrorKey))
	assert.True(t, mr.Exists(cache.RankTiersKey))
}

func TestFactory_Overrides(t *testing.T) {
	db := setupDB(t)
	f, err := NewFactory(db, Options{SkipBcrypt: true, RandSeed: 3})
	require.NoError(t, err)

	admin, err := f.CreateUser(func(u *models.User) {
		u.Role = models.RoleAdmin
		u.Exp = 0
	})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	assert.NotEmpty(t, admin.ID)

	img, err := f.CreateImage(admin, nil, func(i *models.Image) { i.Views = 9 })
	require.NoError(t, err)
	assert.Equal(t, 9, img.Views)
	assert.Equal(t, admin.ID, img.UserID)
}
