package view

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	// Registered decoders for attachment sniffing.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"wall/internal/models"
	"wall/internal/observability"
)

// PostCreator inserts a post record.
type PostCreator interface {
	Create(ctx context.Context, userID, content string, imageURL *string) (*models.Post, error)
}

// Uploader is the blob storage surface the composer needs.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

// Attachment is a selected image blob awaiting upload.
type Attachment struct {
	Name        string
	Data        []byte
	ContentType string
}

// Composer holds transient input state for one post: text capped at
// MaxPostLength (overflow is silently dropped, not rejected) and an optional
// image. Submit uploads the image, then creates the record; failure at either
// step leaves the input intact for retry.
type Composer struct {
	creator   PostCreator
	store     Uploader
	onRefresh func(RefreshEvent)
	now       func() time.Time

	mu         sync.Mutex
	content    string
	attachment *Attachment
	inFlight   bool
}

// NewComposer creates a composer view-model. onRefresh may be nil.
func NewComposer(creator PostCreator, store Uploader, onRefresh func(RefreshEvent)) *Composer {
	return &Composer{
		creator:   creator,
		store:     store,
		onRefresh: onRefresh,
		now:       time.Now,
	}
}

// SetContent replaces the draft text. Input beyond MaxPostLength runes is
// silently truncated.
func (c *Composer) SetContent(s string) {
	runes := []rune(s)
	if len(runes) > models.MaxPostLength {
		runes = runes[:models.MaxPostLength]
	}
	c.mu.Lock()
	c.content = string(runes)
	c.mu.Unlock()
}

// Content returns the current draft text.
func (c *Composer) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

// Remaining reports how many characters are left before the cap.
func (c *Composer) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.MaxPostLength - len([]rune(c.content))
}

// Attach selects an image blob. Blobs that do not decode as an image
// (jpeg/png/gif/webp) are rejected.
func (c *Composer) Attach(name string, data []byte) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return models.NewUploadError(fmt.Errorf("attachment is not an image: %w", err))
	}
	_ = cfg

	c.mu.Lock()
	c.attachment = &Attachment{
		Name:        name,
		Data:        data,
		ContentType: "image/" + format,
	}
	c.mu.Unlock()
	return nil
}

// AttachmentName returns the selected image's name, or "" when none is set.
func (c *Composer) AttachmentName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attachment == nil {
		return ""
	}
	return c.attachment.Name
}

// ClearAttachment drops the selected image.
func (c *Composer) ClearAttachment() {
	c.mu.Lock()
	c.attachment = nil
	c.mu.Unlock()
}

// objectKey derives the storage key from the current time and the original
// extension. Two uploads within the same millisecond collide; the platform's
// bucket semantics decide who wins.
func (c *Composer) objectKey(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	return fmt.Sprintf("%d%s", c.now().UnixMilli(), ext)
}

// Submit uploads the attachment (when present) and creates the post record as
// the given user. It is a no-op when the trimmed content is empty with no
// attachment, or when a submission is already in flight. On success all input
// state resets and a PostCreated refresh fires; on failure the input is left
// unchanged so the user can retry. When the insert fails after a successful
// upload, the uploaded blob is removed best-effort.
func (c *Composer) Submit(ctx context.Context, userID string) error {
	c.mu.Lock()
	trimmed := strings.TrimSpace(c.content)
	att := c.attachment
	if (trimmed == "" && att == nil) || c.inFlight {
		c.mu.Unlock()
		return nil
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	var imageURL *string
	var key string
	if att != nil {
		key = c.objectKey(att.Name)
		err := c.store.Upload(ctx, key, bytes.NewReader(att.Data), int64(len(att.Data)), att.ContentType)
		if err != nil {
			observability.Logger.ErrorContext(ctx, "error uploading image", "key", key, "error", err)
			return err
		}
		url := c.store.PublicURL(key)
		imageURL = &url
	}

	if _, err := c.creator.Create(ctx, userID, trimmed, imageURL); err != nil {
		if key != "" {
			if rmErr := c.store.Remove(ctx, key); rmErr != nil {
				observability.Logger.WarnContext(ctx, "orphaned upload could not be removed",
					"key", key, "error", rmErr)
			}
		}
		observability.Logger.ErrorContext(ctx, "error creating post", "error", err)
		return err
	}

	c.mu.Lock()
	c.content = ""
	c.attachment = nil
	c.mu.Unlock()

	if c.onRefresh != nil {
		c.onRefresh(PostCreated)
	}
	return nil
}
