package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage keeps images on the local filesystem below Root.
type LocalStorage struct {
	Root    string
	BaseURL string
}

// DefaultLocalURL prefixes local media when no URL is configured.
const DefaultLocalURL = "/media/"

// NewLocalStorage returns a LocalStorage serving keys below baseURL.
func NewLocalStorage(root, baseURL string) *LocalStorage {
	if baseURL == "" {
		baseURL = DefaultLocalURL
	}
	return &LocalStorage{Root: root, BaseURL: baseURL}
}

// Save writes r to Root/key, creating parent directories.
func (s *LocalStorage) Save(ctx context.Context, key string, r io.Reader, _ string) error {
	dst := filepath.Join(s.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("write media file: %w", err)
	}
	return f.Close()
}

// URL returns the public URL of key.
func (s *LocalStorage) URL(key string) string {
	return joinURL(s.BaseURL, key)
}
