// Package session wraps the platform's auth API and profiles table behind the
// operations the wall client needs: register, login, logout, current-user
// lookup, and profile read/update.
package session

import (
	"context"
	"errors"
	"time"

	"wall/internal/models"

	"gorm.io/gorm"
)

// ErrConfirmationPending reports a sign-up that succeeded without a live
// session (the platform deferred it, typically for email confirmation). No
// profile row exists yet in that state; the row is inserted on the first
// authenticated sign-in path that the platform's row-level rules accept.
var ErrConfirmationPending = errors.New("sign-up accepted, email confirmation pending")

// AuthAPI is the subset of the platform auth client the accessor uses.
type AuthAPI interface {
	SignUp(ctx context.Context, email, password string, data map[string]interface{}) (*models.Session, *models.AuthUser, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
	UserFromToken(token string) (*models.AuthUser, error)
}

// Accessor provides session and profile operations.
type Accessor struct {
	db   *gorm.DB
	auth AuthAPI
}

// New returns a session accessor over the given platform surfaces.
func New(db *gorm.DB, auth AuthAPI) *Accessor {
	return &Accessor{db: db, auth: auth}
}

// Register creates an auth identity and, when the platform returns a live
// session, inserts the matching profile row. Without a session the identity
// still exists, no profile is inserted, and ErrConfirmationPending is
// returned alongside the user so callers can distinguish the pending state.
func (a *Accessor) Register(ctx context.Context, email, password, fullName string) (*models.Session, *models.AuthUser, error) {
	sess, user, err := a.auth.SignUp(ctx, email, password, map[string]interface{}{
		"full_name": fullName,
	})
	if err != nil {
		return nil, nil, err
	}

	if sess == nil {
		return nil, user, ErrConfirmationPending
	}

	now := time.Now().UTC()
	profile := models.Profile{
		ID:        user.ID,
		FullName:  fullName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.db.WithContext(ctx).Create(&profile).Error; err != nil {
		return nil, nil, models.NewQueryError(err)
	}

	return sess, user, nil
}

// Login establishes a session for existing credentials.
func (a *Accessor) Login(ctx context.Context, email, password string) (*models.Session, error) {
	return a.auth.SignInWithPassword(ctx, email, password)
}

// Logout invalidates the session behind the given access token.
func (a *Accessor) Logout(ctx context.Context, token string) error {
	return a.auth.SignOut(ctx, token)
}

// CurrentUser returns the user behind an access token, or nil when there is
// no valid session. "No session" is never an error.
func (a *Accessor) CurrentUser(token string) (*models.AuthUser, error) {
	return a.auth.UserFromToken(token)
}

// GetProfile fetches a single profile row.
func (a *Accessor) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := a.db.WithContext(ctx).First(&profile, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Profile", userID)
		}
		return nil, models.NewQueryError(err)
	}
	return &profile, nil
}

// UpdateProfile applies a partial update, stamps updated_at, and returns the
// updated row. Ownership is enforced by the platform's row-level rules, not
// here.
func (a *Accessor) UpdateProfile(ctx context.Context, userID string, fields map[string]interface{}) (*models.Profile, error) {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now().UTC()

	result := a.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return nil, models.NewQueryError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Profile", userID)
	}

	return a.GetProfile(ctx, userID)
}
