// Package media stores uploaded property images on local disk or in an
// S3-compatible bucket.
package media

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"estatehub.app/internal/config"
	"estatehub.app/internal/estate"
	"estatehub.app/internal/ids"
)

// MaxImageBytes caps a single uploaded image.
const MaxImageBytes = 5 << 20

var (
	ErrTooLarge        = fmt.Errorf("%w: image exceeds 5 MiB", estate.ErrInvalidInput)
	ErrUnsupportedType = fmt.Errorf("%w: image must be jpeg, png or webp", estate.ErrInvalidInput)
	ErrEmpty           = fmt.Errorf("%w: image is empty", estate.ErrInvalidInput)
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Store writes an object under key and returns its public URL.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// Library validates images and files them under a dated key.
type Library struct {
	store    Store
	maxBytes int
	now      func() time.Time
}

var _ estate.ImageStore = (*Library)(nil)

func NewLibrary(store Store) *Library {
	return &Library{store: store, maxBytes: MaxImageBytes, now: time.Now}
}

// Open builds a Library for the configured driver.
func Open(ctx context.Context, cfg config.MediaConfig) (*Library, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "disk":
		return NewLibrary(NewDiskStore(cfg.Dir, cfg.BaseURL)), nil
	case "s3":
		s, err := NewS3Store(ctx, cfg.S3, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return NewLibrary(s), nil
	}
	return nil, fmt.Errorf("media: unknown driver %q", cfg.Driver)
}

// SaveImage sniffs data, rejects anything but jpeg, png or webp, and stores it
// as properties/YYYY/MM/<id>.<ext>.
func (l *Library) SaveImage(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if len(data) > l.maxBytes {
		return "", ErrTooLarge
	}
	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}
	now := l.now().UTC()
	key := fmt.Sprintf("properties/%04d/%02d/%s.%s", now.Year(), int(now.Month()), strings.ToLower(ids.NewAt(now)), ext)
	url, err := l.store.Put(ctx, key, data, contentType)
	if err != nil {
		return "", fmt.Errorf("media: store %s: %w", key, err)
	}
	return url, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
