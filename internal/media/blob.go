package media

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/msomdec/estate-listings/internal/domain"
)

// Blob keeps images in the application's own database and serves them
// under /media/{key}.
type Blob struct {
	store   domain.FileStore
	baseURL string
}

// NewBlob creates a blob uploader. baseURL is the externally reachable
// origin of this API, e.g. "http://localhost:8000".
func NewBlob(store domain.FileStore, baseURL string) *Blob {
	return &Blob{store: store, baseURL: strings.TrimRight(baseURL, "/")}
}

func (b *Blob) Upload(ctx context.Context, f File) (string, error) {
	key := uuid.NewString() + allowedTypes[f.ContentType]
	if err := b.store.Save(ctx, key, f.ContentType, f.Data); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return b.baseURL + "/media/" + key, nil
}
