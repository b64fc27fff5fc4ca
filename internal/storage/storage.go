// Package storage persists uploaded images and returns the path the
// catalog stores for them. Public URLs are built elsewhere by joining
// that path with the configured media base URL.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStorage saves and removes image objects.
type ImageStorage interface {
	// Save stores r under folder and returns the stored path, e.g. "/media/products/<uuid>.jpg".
	Save(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error)
	// Delete removes a previously saved path. Missing objects are not an error.
	Delete(ctx context.Context, path string) error
}

// AllowedImageTypes lists the content types accepted for uploads.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ValidateContentType rejects anything that is not a supported image.
func ValidateContentType(contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if _, ok := AllowedImageTypes[ct]; !ok {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// objectKey builds "<folder>/<uuid><ext>", keeping the upload's extension
// when it has one and falling back to the content type's.
func objectKey(folder, filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = AllowedImageTypes[strings.ToLower(contentType)]
	}
	folder = strings.Trim(folder, "/")
	return fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)
}
