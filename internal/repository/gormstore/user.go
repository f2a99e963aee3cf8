package gormstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/msomdec/estate-listings/internal/domain"
	"gorm.io/gorm"
)

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	m := userFromDomain(user)
	m.ID = uuid.NewString()
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDuplicateKey(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID = m.ID
	user.CreatedAt = m.CreatedAt
	user.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return m.toDomain(), nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).First(&m, "email = ?", email).Error; err != nil {
		return nil, notFound(err)
	}
	return m.toDomain(), nil
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	m := userFromDomain(user)
	res := r.db.WithContext(ctx).Model(&m).
		Select("email", "name", "password_hash", "role", "updated_at").
		Updates(&m)
	if res.Error != nil {
		if isDuplicateKey(res.Error) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	user.UpdatedAt = m.UpdatedAt
	return nil
}
