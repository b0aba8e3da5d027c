// Package images downloads remote card and set images to local storage so
// entries keep a local asset reference.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type Storage struct {
	dir    string
	client *http.Client
}

func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create image directory: %w", err)
	}
	return &Storage{
		dir:    dir,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Download fetches the remote image and stores it under a freshly generated
// filename, returning the local filename. Each call produces a new file even
// for a URL fetched before; repeated adds of the same card are not
// content-deduplicated.
func (s *Storage) Download(ctx context.Context, imageURL string) (string, error) {
	if imageURL == "" {
		return "", fmt.Errorf("empty image url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	filename := uuid.New().String() + extensionFor(imageURL)
	path := filepath.Join(s.dir, filename)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return filename, nil
}

// Dir returns the storage directory, for static file serving.
func (s *Storage) Dir() string {
	return s.dir
}

func extensionFor(imageURL string) string {
	switch ext := filepath.Ext(imageURL); ext {
	case ".png", ".jpg", ".jpeg", ".webp":
		return ext
	default:
		return ".png"
	}
}
