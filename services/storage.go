package services

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ObjectStore persists uploaded images and returns their public URL.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// FileUpload is an image handed over by the transport layer.
type FileUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

func (f *FileUpload) validate(field string) error {
	if f == nil || f.Body == nil {
		return invalid(field, "required")
	}
	if _, ok := allowedImageTypes[strings.ToLower(f.ContentType)]; !ok {
		return invalid(field, "must be a jpeg, png or webp image")
	}
	return nil
}

// objectKey builds "<prefix>/<uuid><ext>", keeping the client's extension if it has one.
func (f *FileUpload) objectKey(prefix string) string {
	ext := strings.ToLower(filepath.Ext(f.Filename))
	if ext == "" {
		ext = allowedImageTypes[strings.ToLower(f.ContentType)]
	}
	return prefix + "/" + uuid.NewString() + ext
}
