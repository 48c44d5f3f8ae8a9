package ports

import (
	"context"
	"io"
)

// Object storage for archived recordings.
type S3Client interface {
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) (publicURL string, err error)
	RemoveObject(ctx context.Context, key string) error
}
