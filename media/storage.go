// Package media stores uploaded timer images.
package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"path/filepath"
	"strings"

	"timer-service/config"

	"github.com/google/uuid"
)

// UploadDir is the key prefix of every timer image.
const UploadDir = "uploads/timer"

// ErrNotImage is returned by CheckImage for undecodable content.
var ErrNotImage = errors.New("not a supported image")

// Storage persists image bytes under a key and resolves public URLs.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	URL(key string) string
}

// NewKey returns a fresh storage key for an upload named filename. Only the
// extension of the client name is kept.
func NewKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	return path.Join(UploadDir, uuid.New().String()+ext)
}

// CheckImage reports whether r starts with a PNG, JPEG or GIF header and
// rewinds it.
func CheckImage(r io.ReadSeeker) (format string, err error) {
	_, format, err = image.DecodeConfig(r)
	if err != nil {
		return "", ErrNotImage
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return format, nil
}

// New builds the storage backend selected by cfg.
func New(ctx context.Context, cfg config.MediaConfig) (Storage, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalStorage(cfg.Root, cfg.URL), nil
	case "s3":
		return NewS3Storage(ctx, cfg.S3, cfg.URL)
	}
	return nil, fmt.Errorf("unknown media backend %q", cfg.Backend)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
