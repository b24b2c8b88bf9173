package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open when the key does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectStore saves and retrieves binary objects such as uploaded workbooks and
// the cached guide CSV.
type ObjectStore interface {
	// Save stores r under a generated key in the user's namespace.
	Save(ctx context.Context, userID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	// SaveWithKey stores r at an exact key, replacing any previous object.
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// Delete removes an object; a missing key is not an error.
	Delete(ctx context.Context, storageKey string) error
}
