package core

import "context"

// BlobStore persists binary artifacts under stable names and addresses them
// by URL afterward. Implementations must treat Upload as overwrite-on-write:
// uploading the same name twice is idempotent and yields the same URL.
type BlobStore interface {
	// Ensure creates the backing bucket/container if it does not exist yet.
	Ensure(ctx context.Context) error

	// Upload writes data under name with the given content type, replacing
	// any existing object, and returns the addressable URL of the object.
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}
