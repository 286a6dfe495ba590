package storage

import (
	"context"
	"io"

	"github.com/techagentng/converse/config"
)

// BlobStore is the narrow contract the picture service needs from binary
// storage. Delete is best-effort: callers log a false return and move on.
type BlobStore interface {
	Save(ctx context.Context, r io.Reader, filename string) (string, error)
	Delete(ctx context.Context, filename string) bool
}

// NewBlobStore picks S3 when a bucket is configured, local disk otherwise.
func NewBlobStore(c *config.Config) (BlobStore, error) {
	if c.AWSBucket != "" {
		return NewS3Store(c)
	}
	return NewDiskStore(c.UploadsDir)
}
