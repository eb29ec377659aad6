package models

import "time"

// Profile is one row per auth user in the platform's "profiles" table.
// Created alongside sign-up, mutated only via explicit profile updates,
// never deleted by this client.
type Profile struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url"`
	Bio       string    `json:"bio"`
	Location  string    `json:"location"`
	Networks  []string  `gorm:"serializer:json" json:"networks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
