package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is wrapped by every backend when a key does not exist.
var ErrNotFound = errors.New("storage: object not found")

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Storage reads recordings out of an object store by byte range, so large
// files are never held in memory whole.
type Storage interface {
	Stat(ctx context.Context, key string) (ObjectInfo, error)

	// ReadRange returns up to length bytes starting at offset. Fewer bytes
	// come back only when the range runs past the end of the object.
	ReadRange(ctx context.Context, key string, offset, length int64) ([]byte, error)
}
