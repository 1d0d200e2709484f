package models

import "time"

// Image is a gallery post. Owner is a weak reference to a profile.
type Image struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"index;type:varchar(36);not null" json:"user_id"`
	Title         string    `gorm:"not null" json:"title"`
	Prompt        string    `gorm:"type:text" json:"prompt"`
	ImageURL      string    `json:"image_url"`
	CategoryID    *uint     `gorm:"index" json:"category_id,omitempty"`
	Views         int       `gorm:"not null;default:0" json:"views"`
	Likes         []Like    `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE" json:"likes,omitempty"`
	CommentsCount int       `gorm:"->;-:migration" json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LikedBy returns the distinct user ids that liked the image.
func (i *Image) LikedBy() map[string]struct{} {
	set := make(map[string]struct{}, len(i.Likes))
	for _, l := range i.Likes {
		if l.UserID == "" {
			continue
		}
		set[l.UserID] = struct{}{}
	}
	return set
}

// Like records one user liking one image. The unique index makes likes a set.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"uniqueIndex:idx_like_user_image;type:varchar(36);not null" json:"user_id"`
	ImageID   uint      `gorm:"uniqueIndex:idx_like_user_image;not null" json:"image_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a comment on an image.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ImageID   uint      `gorm:"index;not null" json:"image_id"`
	UserID    string    `gorm:"index;type:varchar(36);not null" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Category groups images. Managed by administrators.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
