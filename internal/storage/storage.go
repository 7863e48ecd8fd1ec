// Package storage presents one store/load/sign contract over the two object
// storage backends the catalog can run against: a locally hosted
// MinIO-compatible endpoint or managed S3. Both ride the same client; the
// variants differ only in endpoint wiring and the shape of the canonical
// public URL, and the choice is made once at startup.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Signed URLs grant read access for this long; callers request a fresh URL
// after expiry.
const SignedURLExpiry = 10 * time.Hour

var (
	// ErrEmptyObject rejects zero-byte uploads before any backend call.
	ErrEmptyObject = errors.New("object payload is empty")
	// ErrObjectNotFound reports a load for a key the backend does not hold.
	ErrObjectNotFound = errors.New("object not found")
)

type ObjectStorage interface {
	// Store uploads the payload and returns the canonical reference recorded
	// against the image row. The canonical reference is never handed to read
	// clients; they get signed URLs instead.
	Store(ctx context.Context, reader io.Reader, size int64, fileName, contentType string) (string, error)
	Load(ctx context.Context, fileName string) (io.ReadCloser, error)
	SignedURL(ctx context.Context, fileName string) (string, error)
}
