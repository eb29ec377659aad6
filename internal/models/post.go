package models

import "time"

// MaxPostLength is the content cap enforced on the client side only; the
// platform exposes no server-side contract for it.
const MaxPostLength = 280

// Post is a row in the platform's "posts" table. Author is the denormalized
// profile attached at read time via a join; feed listings are always ordered
// by created_at descending.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;index;type:uuid" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	ImageURL  *string   `json:"image_url"`
	Author    Profile   `gorm:"foreignKey:UserID;references:ID" json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
