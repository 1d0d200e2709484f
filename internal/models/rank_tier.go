package models

// AdminRequiredExp marks the tier shown for administrators.
const AdminRequiredExp = -1

// RankTier is one rung of the configurable rank ladder.
type RankTier struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"not null" json:"name" yaml:"name"`
	Icon        string `json:"icon" yaml:"icon"`
	Color       string `json:"color" yaml:"color"`
	RequiredExp int    `gorm:"not null" json:"required_exp" yaml:"required_exp"`
}

func (RankTier) TableName() string {
	return "rank_tiers"
}

// IsAdminTier reports whether the tier is the administrator sentinel.
func (t RankTier) IsAdminTier() bool {
	return t.RequiredExp == AdminRequiredExp
}
