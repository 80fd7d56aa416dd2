package portal

import (
	"context"
	"io"
)

// BlobStore stores uploaded file content and hands back a public URL.
type BlobStore interface {
	// Upload writes r to path and returns the URL students use to open it
	Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error)

	// Delete removes the object at path
	Delete(ctx context.Context, path string) error
}
