// Package models contains data structures for the application's domain models.
package models

import "time"

// AuthUser is an identity issued by the platform's auth service. This client
// references users but never owns their lifecycle.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated platform session.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        AuthUser  `json:"user"`
}
