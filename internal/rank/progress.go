package rank

import "promptgallery/internal/models"

// Progress describes how far a profile is through its current tier.
type Progress struct {
	Exp      int              `json:"exp"`
	Current  models.RankTier  `json:"current"`
	Next     *models.RankTier `json:"next,omitempty"`
	IntoTier int              `json:"into_tier"`
	TierSpan int              `json:"tier_span"`
	Percent  float64          `json:"percent"`
}

// ProgressFor reports progress toward the next tier. Administrators are
// measured against the ordinary ladder. At the top tier Next is nil and
// Percent is 100.
func ProgressFor(user *models.User, tiers TierSet) Progress {
	exp := 0
	if user != nil && user.Exp > 0 {
		exp = user.Exp
	}

	ladder := tiers.Ascending()
	current := ladder[0]
	var next *models.RankTier
	for i, t := range ladder {
		if exp < t.RequiredExp {
			n := ladder[i]
			next = &n
			break
		}
		current = t
	}

	p := Progress{Exp: exp, Current: current, Next: next}
	if next == nil {
		p.Percent = 100
		return p
	}

	p.IntoTier = exp - current.RequiredExp
	p.TierSpan = next.RequiredExp - current.RequiredExp
	if p.TierSpan > 0 {
		p.Percent = float64(p.IntoTier) * 100 / float64(p.TierSpan)
	}
	if p.Percent < 0 {
		p.Percent = 0
	}
	if p.Percent > 100 {
		p.Percent = 100
	}
	return p
}
