package view

import (
	"context"
	"errors"
	"sync"

	"wall/internal/models"
	"wall/internal/observability"
)

// ProfileGetter fetches a single profile row.
type ProfileGetter interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// ProfileView is the read-only view-model behind the profile sidebar.
type ProfileView struct {
	getter ProfileGetter

	mu       sync.Mutex
	profile  *models.Profile
	loading  bool
	notFound bool
}

// NewProfileView creates a profile view-model.
func NewProfileView(getter ProfileGetter) *ProfileView {
	return &ProfileView{getter: getter, loading: true}
}

// Load fetches the profile for the given user. A zero-row fetch lands in the
// not-found state; other failures are logged and leave any previous profile
// in place.
func (v *ProfileView) Load(ctx context.Context, userID string) error {
	v.mu.Lock()
	v.loading = true
	v.notFound = false
	v.mu.Unlock()

	profile, err := v.getter.GetProfile(ctx, userID)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false

	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			v.profile = nil
			v.notFound = true
			return err
		}
		observability.Logger.ErrorContext(ctx, "error loading profile", "user_id", userID, "error", err)
		return err
	}

	v.profile = profile
	return nil
}

// Profile returns the loaded profile, or nil while loading or not found.
func (v *ProfileView) Profile() *models.Profile {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.profile
}

// Loading reports whether a fetch is in flight.
func (v *ProfileView) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// NotFound reports whether the last load returned zero rows.
func (v *ProfileView) NotFound() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.notFound
}
