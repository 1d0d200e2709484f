// Package rank maps a profile's experience onto the configurable rank ladder.
package rank

import (
	"sort"

	"promptgallery/internal/models"
)

// Fallback presentation used when the ladder lacks the reserved tiers.
const (
	FallbackDefaultName  = "Member"
	FallbackDefaultColor = "#A0A0A0"
	FallbackAdminName    = "Administrator"
	FallbackAdminColor   = "#FF4141"
)

// TierSet is an immutable snapshot of the rank ladder. It is passed by value
// into every resolution; the zero value behaves like an empty ladder.
type TierSet struct {
	tiers []models.RankTier
}

// NewTierSet copies tiers into a new snapshot.
func NewTierSet(tiers []models.RankTier) TierSet {
	cp := make([]models.RankTier, len(tiers))
	copy(cp, tiers)
	return TierSet{tiers: cp}
}

// Tiers returns a copy of the tiers in their original order.
func (s TierSet) Tiers() []models.RankTier {
	cp := make([]models.RankTier, len(s.tiers))
	copy(cp, s.tiers)
	return cp
}

// Len is the number of configured tiers.
func (s TierSet) Len() int {
	return len(s.tiers)
}

// Default returns the requiredExp 0 tier, synthesizing one if it is missing.
// With duplicates the first in input order wins.
func (s TierSet) Default() models.RankTier {
	for _, t := range s.tiers {
		if t.RequiredExp == 0 {
			return t
		}
	}
	return models.RankTier{Name: FallbackDefaultName, Color: FallbackDefaultColor}
}

// Admin returns the administrator sentinel tier. A missing sentinel is
// derived from the default tier.
func (s TierSet) Admin() models.RankTier {
	for _, t := range s.tiers {
		if t.IsAdminTier() {
			return t
		}
	}
	admin := s.Default()
	admin.ID = 0
	admin.Name = FallbackAdminName
	admin.Color = FallbackAdminColor
	admin.RequiredExp = models.AdminRequiredExp
	return admin
}

// Ordinary returns the attainable tiers sorted by requiredExp descending.
// The sort is stable so duplicate thresholds keep input order.
func (s TierSet) Ordinary() []models.RankTier {
	out := make([]models.RankTier, 0, len(s.tiers))
	for _, t := range s.tiers {
		if t.RequiredExp >= 0 {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RequiredExp > out[j].RequiredExp
	})
	return out
}

// Ascending returns the attainable tiers lowest first, always starting at a
// requiredExp 0 tier. Duplicate thresholds appear in reverse input order.
func (s TierSet) Ascending() []models.RankTier {
	desc := s.Ordinary()
	out := make([]models.RankTier, 0, len(desc)+1)
	hasDefault := false
	for i := len(desc) - 1; i >= 0; i-- {
		if desc[i].RequiredExp == 0 {
			hasDefault = true
		}
		out = append(out, desc[i])
	}
	if !hasDefault {
		out = append([]models.RankTier{s.Default()}, out...)
	}
	return out
}

// tierFor returns the highest ordinary tier whose threshold exp has reached.
func (s TierSet) tierFor(exp int) models.RankTier {
	for _, t := range s.Ordinary() {
		if exp >= t.RequiredExp {
			return t
		}
	}
	return s.Default()
}
