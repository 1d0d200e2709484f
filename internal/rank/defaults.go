package rank

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"promptgallery/internal/models"
)

// DefaultTiers is the built-in ladder used when the store is empty.
func DefaultTiers() []models.RankTier {
	return []models.RankTier{
		{Name: "Member", Color: "#A0A0A0", RequiredExp: 0},
		{Name: "Apprentice", Color: "#4CAF50", RequiredExp: 100},
		{Name: "Artist", Color: "#2196F3", RequiredExp: AdvancedExp},
		{Name: "Expert", Color: "#9C27B0", RequiredExp: ExpertExp},
		{Name: "Master", Color: "#FF9800", RequiredExp: MasterExp},
		{Name: "Administrator", Color: FallbackAdminColor, RequiredExp: models.AdminRequiredExp},
	}
}

type ladderFile struct {
	Tiers []models.RankTier `yaml:"tiers"`
}

// LoadFile reads a YAML ladder of the form
//
//	tiers:
//	  - name: Member
//	    color: "#A0A0A0"
//	    required_exp: 0
//
// and validates it.
func LoadFile(path string) ([]models.RankTier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rank tiers file: %w", err)
	}
	var f ladderFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rank tiers file: %w", err)
	}
	tiers := Normalize(f.Tiers)
	if err := Validate(tiers); err != nil {
		return nil, fmt.Errorf("rank tiers file %s: %w", path, err)
	}
	return tiers, nil
}
