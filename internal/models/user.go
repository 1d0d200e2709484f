// Package models contains data structures for the gallery's domain models.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles a profile can hold.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a gallery profile. Only the fields the gamification core needs are
// required; everything else is display data.
type User struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username         string    `gorm:"uniqueIndex;not null" json:"username"`
	Email            string    `gorm:"uniqueIndex;not null" json:"email,omitempty"`
	Password         string    `json:"-"`
	Role             string    `gorm:"not null;default:user" json:"role"`
	Exp              int       `gorm:"not null;default:0" json:"exp"`
	CustomTitle      string    `json:"custom_title,omitempty"`
	CustomTitleColor string    `json:"custom_title_color,omitempty"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName keeps the profile table name used by the hosted database.
func (User) TableName() string {
	return "profiles"
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// IsAdmin reports whether the profile holds the administrator role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// DisplayTitle returns the custom title override, if one is set.
func (u *User) DisplayTitle() (title, color string, ok bool) {
	if u == nil {
		return "", "", false
	}
	title = strings.TrimSpace(u.CustomTitle)
	color = strings.TrimSpace(u.CustomTitleColor)
	return title, color, title != "" || color != ""
}
