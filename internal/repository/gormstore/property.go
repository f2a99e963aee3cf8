package gormstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/msomdec/estate-listings/internal/domain"
	"gorm.io/gorm"
)

type propertyRepo struct {
	db *gorm.DB
}

func (r *propertyRepo) Create(ctx context.Context, p *domain.Property) error {
	m := propertyFromDomain(p)
	m.ID = uuid.NewString()
	m.Views = 0
	if err := r.db.WithContext(ctx).Omit("Owner").Create(&m).Error; err != nil {
		return fmt.Errorf("insert property: %w", err)
	}
	p.ID = m.ID
	p.Views = 0
	p.CreatedAt = m.CreatedAt
	p.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *propertyRepo) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	var m propertyModel
	if err := r.db.WithContext(ctx).Preload("Owner").First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return m.toDomain(), nil
}

func (r *propertyRepo) List(ctx context.Context, filter domain.PropertyFilter) ([]domain.Property, error) {
	q := r.db.WithContext(ctx).Preload("Owner")

	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(location) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type))
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.MinBedrooms != nil {
		q = q.Where("bedrooms >= ?", *filter.MinBedrooms)
	}

	return findProperties(q)
}

func (r *propertyRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Property, error) {
	return findProperties(r.db.WithContext(ctx).Preload("Owner").Where("owner_id = ?", ownerID))
}

func (r *propertyRepo) Update(ctx context.Context, p *domain.Property) error {
	m := propertyFromDomain(p)
	res := r.db.WithContext(ctx).Model(&m).
		Select("title", "description", "price", "location", "type", "bedrooms", "bathrooms",
			"area", "year_built", "parking", "features", "images", "updated_at").
		Updates(&m)
	if res.Error != nil {
		return fmt.Errorf("update property: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	p.UpdatedAt = m.UpdatedAt
	return nil
}

// Delete removes the property and its leads in one transaction, so the
// cascade holds even where the dialect does not enforce foreign keys.
func (r *propertyRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", id).Delete(&leadModel{}).Error; err != nil {
			return fmt.Errorf("delete leads: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&propertyModel{})
		if res.Error != nil {
			return fmt.Errorf("delete property: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *propertyRepo) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&propertyModel{}).Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("increment views: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return tx.Model(&propertyModel{}).Where("id = ?", id).Pluck("views", &views).Error
	})
	if err != nil {
		return 0, err
	}
	return views, nil
}

func findProperties(q *gorm.DB) ([]domain.Property, error) {
	var models []propertyModel
	if err := q.Order("created_at DESC").Order("id DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	properties := make([]domain.Property, 0, len(models))
	for _, m := range models {
		properties = append(properties, *m.toDomain())
	}
	return properties, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
