// Package objstore implements core.BlobStore on a MinIO / S3-compatible
// object store.
package objstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"mathtutor/config"
	"mathtutor/core"
)

// Store is a MinIO-backed blob store. PutObject replaces existing objects
// with the same key, which gives the overwrite-on-write semantics the
// BlobStore contract requires.
type Store struct {
	mc        *minio.Client
	bucket    string
	publicURL string
	secure    bool
	endpoint  string
}

var _ core.BlobStore = (*Store)(nil)

// New creates a Store from storage configuration.
func New(cfg config.StorageConfig) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("storage access_key and secret_key are required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	return &Store{
		mc:        mc,
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicBaseURL,
		secure:    cfg.UseSSL,
		endpoint:  cfg.Endpoint,
	}, nil
}

// Ensure creates the bucket if it does not exist.
func (s *Store) Ensure(ctx context.Context) error {
	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

// Upload writes data under name with the given content type and returns the
// object's addressable URL.
func (s *Store) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.mc.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return s.objectURL(name), nil
}

// objectURL derives the public URL for an object, preferring the configured
// public base (CDN / reverse proxy) over the raw endpoint.
func (s *Store) objectURL(name string) string {
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, name)
	}
	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, name)
}
