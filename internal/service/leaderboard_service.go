package service

import (
	"context"
	"time"

	"promptgallery/internal/leaderboard"
	"promptgallery/internal/observability"
	"promptgallery/internal/rank"
	"promptgallery/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const defaultLeaderboardLimit = 10

// LeaderboardRow is a ranked entry with the profile's displayed rank.
type LeaderboardRow struct {
	leaderboard.Entry
	Rank rank.Info `json:"rank"`
}

// LeaderboardService scores profiles by gallery activity and ranks them.
type LeaderboardService struct {
	profileRepo repository.ProfileRepository
	imageRepo   repository.ImageRepository
	ranks       *RankService
	weights     leaderboard.Weights
}

// NewLeaderboardService creates a LeaderboardService using the given weights.
func NewLeaderboardService(
	profileRepo repository.ProfileRepository,
	imageRepo repository.ImageRepository,
	ranks *RankService,
	weights leaderboard.Weights,
) *LeaderboardService {
	return &LeaderboardService{
		profileRepo: profileRepo,
		imageRepo:   imageRepo,
		ranks:       ranks,
		weights:     weights,
	}
}

// Leaderboard rebuilds the ranking from the current store contents. A
// non-positive limit uses the default; the result is never cached.
func (s *LeaderboardService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	span, ctx := observability.NewSpan(ctx, "leaderboard.build")
	defer span.End()
	start := time.Now()
	defer func() {
		observability.LeaderboardBuildSeconds.Observe(time.Since(start).Seconds())
	}()

	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	users, err := s.profileRepo.ListAll(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	images, err := s.imageRepo.ListAll(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	entries := leaderboard.Rank(leaderboard.Aggregate(users, images, s.weights))
	if len(entries) > limit {
		entries = entries[:limit]
	}

	tiers := s.ranks.Tiers()
	posts := leaderboard.PostCounts(images)
	rows := make([]LeaderboardRow, len(entries))
	for i, e := range entries {
		user := e.User
		rows[i] = LeaderboardRow{
			Entry: e,
			Rank:  rank.Resolve(&user, posts[user.ID], tiers),
		}
	}

	span.AddAttributes(
		attribute.Int("leaderboard.users", len(users)),
		attribute.Int("leaderboard.images", len(images)),
		attribute.Int("leaderboard.rows", len(rows)),
	)
	return rows, nil
}
