// Package blobstore stores uploaded document bytes behind opaque handles.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"kycflow/pkg/platform/sentinel"
)

// Store is the blob capability: put, open and delete by handle.
type Store interface {
	Put(ctx context.Context, r io.Reader, meta Meta) (string, error)
	Open(ctx context.Context, handle string) (io.ReadCloser, error)
	Delete(ctx context.Context, handle string) error
}

// Meta describes a blob being stored.
type Meta struct {
	MediaType string
	Size      int64
}

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// NewHandle returns a date-partitioned random key, e.g.
// documents/2025/01/31/1b4e28ba-2fa1-11d2-883f-0016d3cca427.pdf
func NewHandle(now time.Time, mediaType string) string {
	return fmt.Sprintf("documents/%04d/%02d/%02d/%s%s",
		now.Year(), int(now.Month()), now.Day(), uuid.NewString(), extensions[mediaType])
}

// validHandle rejects handles that could escape the store root.
func validHandle(handle string) error {
	if handle == "" || strings.HasPrefix(handle, "/") || strings.Contains(handle, "\\") {
		return fmt.Errorf("handle %q: %w", handle, sentinel.ErrNotFound)
	}
	if path.Clean(handle) != handle || strings.HasPrefix(handle, "..") {
		return fmt.Errorf("handle %q: %w", handle, sentinel.ErrNotFound)
	}
	return nil
}
