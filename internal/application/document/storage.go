package document

import (
	"context"
	"time"
)

// ObjectStorage abstracts the object store that holds document content.
// Implementations must be safe for concurrent use.
type ObjectStorage interface {
	// GenerateUploadURL returns a presigned PUT URL for the given key.
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL returns a presigned GET URL for the given key.
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// ObjectExists reports whether the object behind the key was actually
	// uploaded. Used to confirm an upload before the document goes active.
	ObjectExists(ctx context.Context, storageKey string) (bool, error)

	// DeleteObject removes the object. Deleting a missing key is not an error.
	DeleteObject(ctx context.Context, storageKey string) error
}
