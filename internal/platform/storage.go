package platform

import (
	"context"
	"fmt"
	"io"
	"strings"

	"wall/internal/config"
	"wall/internal/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BlobStore wraps the platform's S3-compatible storage bucket. Uploads and
// record inserts are independent network calls; the store offers Remove so
// callers can compensate when an insert fails after a successful upload.
type BlobStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewBlobStore connects to the platform's blob storage endpoint.
func NewBlobStore(cfg *config.Config) (*BlobStore, error) {
	client, err := minio.New(cfg.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.StorageUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to blob storage: %w", err)
	}

	publicBase := cfg.StoragePublicURL
	if publicBase == "" {
		scheme := "http"
		if cfg.StorageUseSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s", scheme, cfg.StorageEndpoint)
	}

	return &BlobStore{
		client:     client,
		bucket:     cfg.StorageBucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// Upload writes a blob under the given key.
func (b *BlobStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return models.NewUploadError(err)
	}
	return nil
}

// Remove deletes a blob. Best-effort compensation only; the caller decides
// whether a failure matters.
func (b *BlobStore) Remove(ctx context.Context, key string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return models.NewUploadError(err)
	}
	return nil
}

// PublicURL resolves the publicly reachable URL for a stored key.
func (b *BlobStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", b.publicBase, b.bucket, key)
}
