package rank

import "promptgallery/internal/models"

// Style classes attached to a resolved rank.
const (
	StyleNeutral  = "rank-neutral"
	StyleBase     = "rank-base"
	StyleAdvanced = "rank-advanced"
	StyleExpert   = "rank-expert"
	StyleMaster   = "rank-master"
	StyleAdmin    = "rank-admin"
)

// Experience bands for the escalating style classes. They apply on top of
// whatever tier is active, so custom titles keep the visual treatment.
const (
	AdvancedExp = 500
	ExpertExp   = 1500
	MasterExp   = 3000
)

// Info is the displayed rank of a profile.
type Info struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	Icon       string `json:"icon"`
	StyleClass string `json:"style_class"`
	PostCount  int    `json:"post_count"`
	// RequiredExp identifies the tier that was selected. Custom titles do not
	// change it.
	RequiredExp int `json:"required_exp"`
}

// Resolve computes the displayed rank for user. A nil user is an anonymous
// viewer and gets the default tier. postCount is the number of images the
// user owns; callers share it with the leaderboard.
func Resolve(user *models.User, postCount int, tiers TierSet) Info {
	if user == nil {
		def := tiers.Default()
		return Info{
			Name:        def.Name,
			Color:       def.Color,
			Icon:        def.Icon,
			StyleClass:  StyleNeutral,
			RequiredExp: def.RequiredExp,
		}
	}
	if postCount < 0 {
		postCount = 0
	}

	var tier models.RankTier
	var style string
	if user.IsAdmin() {
		tier = tiers.Admin()
		style = StyleAdmin
	} else {
		tier = tiers.tierFor(user.Exp)
		style = StyleFor(user.Exp)
	}

	info := Info{
		Name:        tier.Name,
		Color:       tier.Color,
		Icon:        tier.Icon,
		StyleClass:  style,
		PostCount:   postCount,
		RequiredExp: tier.RequiredExp,
	}
	applyCustomTitle(&info, user)
	return info
}

// StyleFor returns the style band for an ordinary profile's experience.
func StyleFor(exp int) string {
	switch {
	case exp >= MasterExp:
		return StyleMaster
	case exp >= ExpertExp:
		return StyleExpert
	case exp >= AdvancedExp:
		return StyleAdvanced
	default:
		return StyleBase
	}
}

func applyCustomTitle(info *Info, user *models.User) {
	title, color, ok := user.DisplayTitle()
	if !ok {
		return
	}
	if title != "" {
		info.Name = title
	}
	if color != "" {
		info.Color = color
	}
}
