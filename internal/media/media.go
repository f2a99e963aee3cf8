// Package media stores uploaded listing images and returns the URL that a
// property record keeps as its image reference.
package media

import (
	"context"
	"fmt"
	"net/http"

	"github.com/msomdec/estate-listings/internal/domain"
)

// MaxImageSize is the largest accepted upload, per image.
const MaxImageSize = 10 << 20

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// File is an uploaded image held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, f File) (string, error)
}

// Validate checks size and type. The declared content type is ignored in
// favour of the sniffed one.
func Validate(f *File) error {
	if len(f.Data) == 0 {
		return fmt.Errorf("%w: image %q is empty", domain.ErrInvalidInput, f.Name)
	}
	if len(f.Data) > MaxImageSize {
		return fmt.Errorf("%w: image %q exceeds 10MB", domain.ErrInvalidInput, f.Name)
	}
	ct := http.DetectContentType(f.Data)
	if _, ok := allowedTypes[ct]; !ok {
		return fmt.Errorf("%w: image %q must be JPEG, PNG or WebP", domain.ErrInvalidInput, f.Name)
	}
	f.ContentType = ct
	return nil
}

// UploadAll validates and uploads files in order, returning their URLs.
func UploadAll(ctx context.Context, u Uploader, files []File) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if u == nil {
		return nil, fmt.Errorf("%w: image uploads are not configured", domain.ErrInvalidInput)
	}

	for i := range files {
		if err := Validate(&files[i]); err != nil {
			return nil, err
		}
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := u.Upload(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", f.Name, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}
