package leaderboard

import (
	"sort"

	"promptgallery/internal/models"
)

// Medals for the podium positions.
const (
	MedalGold   = "gold"
	MedalSilver = "silver"
	MedalBronze = "bronze"
)

// UserStats is derived on every call and never stored.
type UserStats struct {
	User          models.User `json:"user"`
	TotalPosts    int         `json:"total_posts"`
	TotalLikes    int         `json:"total_likes"`
	TotalComments int         `json:"total_comments"`
	TotalViews    int         `json:"total_views"`
	Score         int         `json:"score"`
}

// Entry is a ranked row of the leaderboard.
type Entry struct {
	Position int    `json:"position"`
	Medal    string `json:"medal,omitempty"`
	UserStats
}

// Aggregate returns one UserStats per user, in input order. Images owned by
// unknown users are skipped; negative counters count as zero.
func Aggregate(users []models.User, images []models.Image, w Weights) []UserStats {
	stats := make([]UserStats, len(users))
	index := make(map[string]int, len(users))
	for i, u := range users {
		stats[i].User = u
		if _, dup := index[u.ID]; !dup {
			index[u.ID] = i
		}
	}

	for i := range images {
		img := &images[i]
		pos, ok := index[img.UserID]
		if !ok {
			continue
		}
		s := &stats[pos]
		s.TotalPosts++
		s.TotalLikes += len(img.LikedBy())
		s.TotalComments += nonNegative(img.CommentsCount)
		s.TotalViews += nonNegative(img.Views)
	}

	for i := range stats {
		s := &stats[i]
		s.Score = s.TotalPosts*w.Post + s.TotalLikes*w.Like + s.TotalComments*w.Comment + s.TotalViews*w.View
	}
	// Duplicate user rows share the first row's totals.
	for i, u := range users {
		if first := index[u.ID]; first != i {
			user := stats[i].User
			stats[i] = stats[first]
			stats[i].User = user
		}
	}
	return stats
}

// Rank orders stats by score descending. Ties go to the older profile, then
// to the lower id, so the order never depends on fetch order.
func Rank(stats []UserStats) []Entry {
	sorted := make([]UserStats, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.User.CreatedAt.Equal(b.User.CreatedAt) {
			return a.User.CreatedAt.Before(b.User.CreatedAt)
		}
		return a.User.ID < b.User.ID
	})

	entries := make([]Entry, len(sorted))
	for i, s := range sorted {
		entries[i] = Entry{Position: i + 1, Medal: MedalFor(i + 1), UserStats: s}
	}
	return entries
}

// MedalFor returns the podium medal for a 1-based position.
func MedalFor(position int) string {
	switch position {
	case 1:
		return MedalGold
	case 2:
		return MedalSilver
	case 3:
		return MedalBronze
	default:
		return ""
	}
}

// PostCounts counts images per owner.
func PostCounts(images []models.Image) map[string]int {
	counts := make(map[string]int)
	for i := range images {
		counts[images[i].UserID]++
	}
	return counts
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
