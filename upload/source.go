package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kbukum/interviewscribe/storage"
)

// Source is a readable recording of known size.
type Source interface {
	Name() string
	Size() int64
	MimeType() string
	// ReadChunk returns exactly length bytes starting at offset.
	ReadChunk(ctx context.Context, offset, length int64) ([]byte, error)
}

var mediaTypes = map[string]string{
	".aac":  "audio/aac",
	".aif":  "audio/aiff",
	".aiff": "audio/aiff",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".oga":  "audio/ogg",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".wav":  "audio/wav",
	".weba": "audio/webm",
	".avi":  "video/x-msvideo",
	".m4v":  "video/mp4",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".mp4":  "video/mp4",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".webm": "video/webm",
}

// DetectMimeType resolves a media type from the file extension, falling back
// to sniffing head when the extension is unknown.
func DetectMimeType(name string, head []byte) string {
	if mt, ok := mediaTypes[strings.ToLower(path.Ext(name))]; ok {
		return mt
	}
	if len(head) > 0 {
		return mimetype.Detect(head).String()
	}
	return "application/octet-stream"
}

const sniffLen = 3072

// FileSource reads a local file with ReadAt.
type FileSource struct {
	f        *os.File
	name     string
	size     int64
	mimeType string
}

// OpenFile opens path for upload. An empty mimeType is detected.
func OpenFile(p, mimeType string) (*FileSource, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("upload: %s is a directory", p)
	}
	src := &FileSource{f: f, name: filepath.Base(p), size: st.Size(), mimeType: mimeType}
	if src.mimeType == "" {
		head := make([]byte, min(sniffLen, st.Size()))
		n, _ := f.ReadAt(head, 0)
		src.mimeType = DetectMimeType(src.name, head[:n])
	}
	return src, nil
}

func (s *FileSource) Name() string     { return s.name }
func (s *FileSource) Size() int64      { return s.size }
func (s *FileSource) MimeType() string { return s.mimeType }

func (s *FileSource) ReadChunk(ctx context.Context, offset, length int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	n, err := s.f.ReadAt(buf, offset)
	if err != nil && !(errors.Is(err, io.EOF) && int64(n) == length) {
		return nil, fmt.Errorf("upload: read %s at %d: %w", s.name, offset, err)
	}
	return buf, nil
}

// Close releases the file handle.
func (s *FileSource) Close() error { return s.f.Close() }

// ObjectSource reads an object from object storage by byte range.
type ObjectSource struct {
	store    storage.Storage
	path     string
	size     int64
	mimeType string
}

// OpenObject stats path in store. An empty mimeType is taken from a known
// media extension, then the object's content type, then sniffed from its
// first bytes.
func OpenObject(ctx context.Context, store storage.Storage, p, mimeType string) (*ObjectSource, error) {
	info, err := store.Stat(ctx, p)
	if err != nil {
		return nil, err
	}
	if mimeType == "" {
		mimeType = mediaTypes[strings.ToLower(path.Ext(p))]
	}
	if mimeType == "" && info.ContentType != "application/octet-stream" && info.ContentType != "binary/octet-stream" {
		mimeType = info.ContentType
	}
	if mimeType == "" {
		head, err := store.ReadRange(ctx, p, 0, min(info.Size, sniffLen))
		if err != nil {
			return nil, err
		}
		mimeType = DetectMimeType(p, head)
	}
	return &ObjectSource{store: store, path: p, size: info.Size, mimeType: mimeType}, nil
}

func (s *ObjectSource) Name() string     { return path.Base(s.path) }
func (s *ObjectSource) Size() int64      { return s.size }
func (s *ObjectSource) MimeType() string { return s.mimeType }

func (s *ObjectSource) ReadChunk(ctx context.Context, offset, length int64) ([]byte, error) {
	data, err := s.store.ReadRange(ctx, s.path, offset, length)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != length {
		return nil, fmt.Errorf("upload: short read of %s at %d: got %d of %d bytes", s.path, offset, len(data), length)
	}
	return data, nil
}

// BytesSource serves an in-memory buffer.
type BytesSource struct {
	name     string
	mimeType string
	data     []byte
}

// NewBytesSource wraps data. An empty mimeType is detected.
func NewBytesSource(name, mimeType string, data []byte) *BytesSource {
	if mimeType == "" {
		mimeType = DetectMimeType(name, data[:min(len(data), sniffLen)])
	}
	return &BytesSource{name: name, mimeType: mimeType, data: data}
}

func (s *BytesSource) Name() string     { return s.name }
func (s *BytesSource) Size() int64      { return int64(len(s.data)) }
func (s *BytesSource) MimeType() string { return s.mimeType }

func (s *BytesSource) ReadChunk(ctx context.Context, offset, length int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 || offset+length > int64(len(s.data)) {
		return nil, fmt.Errorf("upload: range %d+%d outside %d bytes", offset, length, len(s.data))
	}
	return bytes.Clone(s.data[offset : offset+length]), nil
}
