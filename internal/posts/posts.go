// Package posts provides the data access layer for the platform's posts table.
package posts

import (
	"context"
	"errors"
	"time"

	"wall/internal/models"
	"wall/internal/observability"
	"wall/internal/platform"

	"gorm.io/gorm"
)

const (
	// DefaultLimit is the feed page size when the caller does not specify one.
	DefaultLimit = 20
	maxLimit     = 100

	tableName = "posts"
)

// ChangePublisher reports row changes to the platform's change-notification
// stream after each successful write.
type ChangePublisher interface {
	Publish(ctx context.Context, ev platform.ChangeEvent) error
}

// Repository defines the interface for post data operations.
type Repository interface {
	Create(ctx context.Context, userID, content string, imageURL *string) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, id uint, content string) (*models.Post, error)
	Delete(ctx context.Context, id uint) error
}

type repository struct {
	db      *gorm.DB
	changes ChangePublisher
}

// NewRepository creates a post repository. The publisher may be nil when the
// change stream is unavailable.
func NewRepository(db *gorm.DB, changes ChangePublisher) Repository {
	return &repository{db: db, changes: changes}
}

// publishChange is best-effort: a lost notification only delays a reload.
func (r *repository) publishChange(ctx context.Context, typ platform.ChangeType, id uint) {
	if r.changes == nil {
		return
	}
	ev := platform.ChangeEvent{Table: tableName, Type: typ, RowID: id}
	if err := r.changes.Publish(ctx, ev); err != nil {
		observability.Logger.WarnContext(ctx, "failed to publish change event",
			"table", tableName, "type", string(typ), "error", err)
	}
}

func (r *repository) Create(ctx context.Context, userID, content string, imageURL *string) (*models.Post, error) {
	if userID == "" {
		return nil, models.NewAuthError("Not authenticated")
	}

	now := time.Now().UTC()
	post := models.Post{
		UserID:    userID,
		Content:   content,
		ImageURL:  imageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, models.NewQueryError(err)
	}

	r.publishChange(ctx, platform.ChangeInsert, post.ID)
	return &post, nil
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewQueryError(err)
	}
	return posts, nil
}

func (r *repository) Update(ctx context.Context, id uint, content string) (*models.Post, error) {
	result := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(map[string]interface{}{
		"content":    content,
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return nil, models.NewQueryError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Post", id)
	}

	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewQueryError(err)
	}

	r.publishChange(ctx, platform.ChangeUpdate, id)
	return &post, nil
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return models.NewQueryError(err)
	}
	r.publishChange(ctx, platform.ChangeDelete, id)
	return nil
}
