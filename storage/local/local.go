// Package local serves local:// keys from a directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"strings"

	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/storage"
)

func init() {
	storage.Register(storage.ProviderLocal, func(_ context.Context, cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		s, err := Open(cfg.Root)
		if err != nil {
			return nil, err
		}
		log.Debug("Local storage opened", logger.Fields("root", cfg.Root))
		return s, nil
	})
}

// Storage reads files beneath one directory. Keys that would leave it,
// through ".." or symlinks, are rejected by the underlying os.Root.
type Storage struct {
	root *os.Root
}

var _ storage.Storage = (*Storage)(nil)

// Open roots a Storage at dir, which must exist.
func Open(dir string) (*Storage, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("storage/local: %w", err)
	}
	return &Storage{root: root}, nil
}

// Close releases the root directory handle.
func (s *Storage) Close() error { return s.root.Close() }

func clean(key string) string {
	return strings.TrimPrefix(path.Clean("/"+key), "/")
}

func (s *Storage) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	fi, err := s.root.Stat(clean(key))
	if err != nil {
		return storage.ObjectInfo{}, wrap(key, err)
	}
	if fi.IsDir() {
		return storage.ObjectInfo{}, fmt.Errorf("storage/local: %s is a directory", key)
	}
	return storage.ObjectInfo{
		Key:         key,
		Size:        fi.Size(),
		ContentType: mime.TypeByExtension(path.Ext(key)),
		ModTime:     fi.ModTime(),
	}, nil
}

func (s *Storage) ReadRange(ctx context.Context, key string, offset, length int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.root.Open(clean(key))
	if err != nil {
		return nil, wrap(key, err)
	}
	defer f.Close()

	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("storage/local: read %s at %d: %w", key, offset, err)
	}
	return buf[:n], nil
}

func wrap(key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return fmt.Errorf("storage/local: %w", err)
}
