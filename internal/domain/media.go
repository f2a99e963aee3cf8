package domain

import "context"

// FileStore abstracts raw file byte storage for locally hosted media.
type FileStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
	Delete(ctx context.Context, key string) error
}
