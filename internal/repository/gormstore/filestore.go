package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type fileStore struct {
	db *gorm.DB
}

func (s *fileStore) Save(ctx context.Context, key, contentType string, data []byte) error {
	m := fileBlobModel{StorageKey: key, ContentType: contentType, Data: data}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("save file blob: %w", err)
	}
	return nil
}

func (s *fileStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	var m fileBlobModel
	if err := s.db.WithContext(ctx).First(&m, "storage_key = ?", key).Error; err != nil {
		return nil, "", notFound(err)
	}
	return m.Data, m.ContentType, nil
}

func (s *fileStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("storage_key = ?", key).Delete(&fileBlobModel{}).Error; err != nil {
		return fmt.Errorf("delete file blob: %w", err)
	}
	return nil
}
