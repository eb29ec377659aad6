package view

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"wall/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createCall struct {
	userID   string
	content  string
	imageURL *string
}

type fakeCreator struct {
	calls []createCall
	err   error
}

func (f *fakeCreator) Create(_ context.Context, userID, content string, imageURL *string) (*models.Post, error) {
	f.calls = append(f.calls, createCall{userID: userID, content: content, imageURL: imageURL})
	if f.err != nil {
		return nil, f.err
	}
	return &models.Post{ID: 1, UserID: userID, Content: content, ImageURL: imageURL}, nil
}

type fakeStore struct {
	uploads   []string
	removes   []string
	uploadErr error
}

func (f *fakeStore) Upload(_ context.Context, key string, _ io.Reader, _ int64, _ string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads = append(f.uploads, key)
	return nil
}

func (f *fakeStore) Remove(_ context.Context, key string) error {
	f.removes = append(f.removes, key)
	return nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "https://cdn.example.com/post-images/" + key
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestComposerTruncatesContent(t *testing.T) {
	c := NewComposer(&fakeCreator{}, &fakeStore{}, nil)

	c.SetContent(strings.Repeat("a", models.MaxPostLength+50))

	assert.Len(t, []rune(c.Content()), models.MaxPostLength)
	assert.Equal(t, 0, c.Remaining())
}

func TestComposerRemaining(t *testing.T) {
	c := NewComposer(&fakeCreator{}, &fakeStore{}, nil)

	c.SetContent("hello")
	assert.Equal(t, models.MaxPostLength-5, c.Remaining())
}

func TestComposerSubmitEmptyIsNoOp(t *testing.T) {
	creator := &fakeCreator{}
	c := NewComposer(creator, &fakeStore{}, nil)

	require.NoError(t, c.Submit(context.Background(), "user-1"))
	c.SetContent("   \n\t ")
	require.NoError(t, c.Submit(context.Background(), "user-1"))

	assert.Empty(t, creator.calls)
}

func TestComposerSubmitInFlightIsNoOp(t *testing.T) {
	creator := &fakeCreator{}
	c := NewComposer(creator, &fakeStore{}, nil)
	c.SetContent("hello")
	c.inFlight = true

	require.NoError(t, c.Submit(context.Background(), "user-1"))
	assert.Empty(t, creator.calls)
}

func TestComposerSubmitResetsState(t *testing.T) {
	creator := &fakeCreator{}
	var fired []RefreshEvent
	c := NewComposer(creator, &fakeStore{}, func(ev RefreshEvent) { fired = append(fired, ev) })

	c.SetContent("  hello wall  ")
	require.NoError(t, c.Submit(context.Background(), "user-1"))

	require.Len(t, creator.calls, 1)
	assert.Equal(t, "user-1", creator.calls[0].userID)
	assert.Equal(t, "hello wall", creator.calls[0].content)
	assert.Nil(t, creator.calls[0].imageURL)
	assert.Equal(t, "", c.Content())
	assert.Equal(t, []RefreshEvent{PostCreated}, fired)
}

func TestComposerAttachRejectsNonImage(t *testing.T) {
	c := NewComposer(&fakeCreator{}, &fakeStore{}, nil)

	err := c.Attach("notes.txt", []byte("definitely not an image"))

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "UPLOAD_ERROR", appErr.Code)
	assert.Equal(t, "", c.AttachmentName())
}

func TestComposerAttachAcceptsPNG(t *testing.T) {
	c := NewComposer(&fakeCreator{}, &fakeStore{}, nil)

	require.NoError(t, c.Attach("photo.png", pngBytes(t)))
	assert.Equal(t, "photo.png", c.AttachmentName())

	c.ClearAttachment()
	assert.Equal(t, "", c.AttachmentName())
}

func TestComposerObjectKey(t *testing.T) {
	c := NewComposer(&fakeCreator{}, &fakeStore{}, nil)
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }

	assert.Equal(t, "1700000000000.png", c.objectKey("Photo.PNG"))
	assert.Equal(t, "1700000000000", c.objectKey("noext"))
}

func TestComposerSubmitUploadsAttachment(t *testing.T) {
	creator := &fakeCreator{}
	store := &fakeStore{}
	c := NewComposer(creator, store, nil)
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }

	require.NoError(t, c.Attach("photo.png", pngBytes(t)))
	c.SetContent("with image")
	require.NoError(t, c.Submit(context.Background(), "user-1"))

	require.Len(t, store.uploads, 1)
	assert.Equal(t, "1700000000000.png", store.uploads[0])
	require.Len(t, creator.calls, 1)
	require.NotNil(t, creator.calls[0].imageURL)
	assert.Equal(t, "https://cdn.example.com/post-images/1700000000000.png", *creator.calls[0].imageURL)
	assert.Equal(t, "", c.AttachmentName())
}

func TestComposerUploadFailureKeepsInput(t *testing.T) {
	creator := &fakeCreator{}
	store := &fakeStore{uploadErr: errors.New("bucket unavailable")}
	c := NewComposer(creator, store, nil)

	require.NoError(t, c.Attach("photo.png", pngBytes(t)))
	c.SetContent("with image")

	err := c.Submit(context.Background(), "user-1")

	require.Error(t, err)
	assert.Empty(t, creator.calls)
	assert.Equal(t, "with image", c.Content())
	assert.Equal(t, "photo.png", c.AttachmentName())
	assert.Empty(t, store.removes)
}

func TestComposerInsertFailureRemovesUpload(t *testing.T) {
	creator := &fakeCreator{err: models.NewQueryError(errors.New("insert rejected"))}
	store := &fakeStore{}
	c := NewComposer(creator, store, nil)
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }

	require.NoError(t, c.Attach("photo.png", pngBytes(t)))
	c.SetContent("with image")

	err := c.Submit(context.Background(), "user-1")

	require.Error(t, err)
	require.Len(t, store.uploads, 1)
	assert.Equal(t, store.uploads, store.removes)
	assert.Equal(t, "with image", c.Content())
	assert.Equal(t, "photo.png", c.AttachmentName())
}
