package rank

import (
	"fmt"
	"regexp"
	"strings"

	"promptgallery/internal/models"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate checks a ladder before it is written. The resolver tolerates
// broken ladders; the store does not accept them.
func Validate(tiers []models.RankTier) error {
	if len(tiers) == 0 {
		return models.NewValidationError("rank ladder must contain at least one tier")
	}

	seen := make(map[int]string, len(tiers))
	for i, t := range tiers {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return models.NewValidationError(fmt.Sprintf("tier %d: name is required", i+1))
		}
		if t.RequiredExp < models.AdminRequiredExp {
			return models.NewValidationError(fmt.Sprintf("tier %q: required exp must be -1 or greater", name))
		}
		if prev, dup := seen[t.RequiredExp]; dup {
			return models.NewValidationError(fmt.Sprintf("tier %q: required exp %d is already used by %q", name, t.RequiredExp, prev))
		}
		seen[t.RequiredExp] = name
		if t.Color != "" && !IsHexColor(t.Color) {
			return models.NewValidationError(fmt.Sprintf("tier %q: color %q is not a hex color", name, t.Color))
		}
	}

	if _, ok := seen[0]; !ok {
		return models.NewValidationError("the default tier (required exp 0) cannot be removed")
	}
	if _, ok := seen[models.AdminRequiredExp]; !ok {
		return models.NewValidationError("the administrator tier (required exp -1) cannot be removed")
	}
	return nil
}

// IsHexColor reports whether s is a #RGB or #RRGGBB color.
func IsHexColor(s string) bool {
	return hexColor.MatchString(s)
}

// Normalize trims names, icons and colors. IDs are dropped so the ladder can be
// re-inserted as a whole.
func Normalize(tiers []models.RankTier) []models.RankTier {
	out := make([]models.RankTier, len(tiers))
	for i, t := range tiers {
		out[i] = models.RankTier{
			Name:        strings.TrimSpace(t.Name),
			Icon:        strings.TrimSpace(t.Icon),
			Color:       strings.TrimSpace(t.Color),
			RequiredExp: t.RequiredExp,
		}
	}
	return out
}
