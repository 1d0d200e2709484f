package cache

import (
	"context"
	"time"
)

const (
	ProfileKeyPrefix = "profile:"
	RankTiersKey     = "rank_tiers"
	ExpMirrorKey     = "exp:mirror"
)

const (
	ProfileTTL   = 5 * time.Minute
	RankTiersTTL = 30 * time.Minute
)

func ProfileKey(userID string) string {
	return ProfileKeyPrefix + userID
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateProfile(ctx context.Context, userID string) {
	Invalidate(ctx, ProfileKey(userID))
}

func InvalidateRankTiers(ctx context.Context) {
	Invalidate(ctx, RankTiersKey)
}
