package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/storeup/storeup-backend/pkg/logger"
)

// MediaPrefix is the URL path local uploads are served under.
const MediaPrefix = "/media"

// LocalStorage writes files below Root and serves them at MediaPrefix.
type LocalStorage struct {
	Root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return &LocalStorage{Root: root}, nil
}

func (s *LocalStorage) Save(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := objectKey(folder, filename, contentType)
	dest := filepath.Join(s.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload folder: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	logger.Debug("Image stored on local disk", map[string]interface{}{
		"key": key,
	})
	return MediaPrefix + "/" + key, nil
}

func (s *LocalStorage) Delete(_ context.Context, path string) error {
	key, ok := strings.CutPrefix(path, MediaPrefix+"/")
	if !ok || strings.Contains(key, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
