package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps uploads on disk; used when R2 is not configured.
type LocalStore struct {
	Dir     string
	BaseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload writes body to Dir/key and returns BaseURL/key.
func (s *LocalStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	destPath, err := s.path(key)
	if err != nil {
		return "", err
	}
	// ✅ Ensure the directory for the destination file exists
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return "", err
	}

	dst, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return s.BaseURL + "/" + filepath.ToSlash(key), nil
}

// path resolves key inside Dir, refusing keys that escape it.
func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid upload key %q", key)
	}
	return filepath.Join(s.Dir, clean), nil
}
