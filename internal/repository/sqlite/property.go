package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/estate-listings/internal/domain"
)

// propertyRepo implements domain.PropertyRepository using SQLite.
type propertyRepo struct {
	db *sql.DB
}

const propertyColumns = `p.id, p.owner_id, p.title, p.description, p.price, p.location, p.type,
	p.bedrooms, p.bathrooms, p.area, p.year_built, p.parking, p.features, p.images, p.views,
	p.created_at, p.updated_at`

const ownerColumns = `u.id, u.email, u.name, u.password_hash, u.role, u.created_at, u.updated_at`

const propertySelect = `SELECT ` + propertyColumns + `, ` + ownerColumns + `
	FROM properties p JOIN users u ON u.id = p.owner_id`

func (r *propertyRepo) Create(ctx context.Context, p *domain.Property) error {
	features, images, err := encodeLists(p)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO properties (id, owner_id, title, description, price, location, type, bedrooms, bathrooms,
		 area, year_built, parking, features, images, views, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		id, p.OwnerID, p.Title, p.Description, p.Price, p.Location, p.Type, p.Bedrooms, p.Bathrooms,
		p.Area, nullInt(p.YearBuilt), p.Parking, features, images, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert property: %w", err)
	}

	p.ID = id
	p.Views = 0
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *propertyRepo) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	row := r.db.QueryRowContext(ctx, propertySelect+` WHERE p.id = ?`, id)
	p, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

func (r *propertyRepo) List(ctx context.Context, filter domain.PropertyFilter) ([]domain.Property, error) {
	var (
		conditions []string
		args       []any
	)

	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		conditions = append(conditions,
			`(LOWER(p.title) LIKE ? ESCAPE '\' OR LOWER(p.location) LIKE ? ESCAPE '\' OR LOWER(p.description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}
	if filter.Type != "" {
		conditions = append(conditions, "p.type = ?")
		args = append(args, filter.Type)
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, "p.price >= ?")
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, "p.price <= ?")
		args = append(args, *filter.MaxPrice)
	}
	if filter.MinBedrooms != nil {
		conditions = append(conditions, "p.bedrooms >= ?")
		args = append(args, *filter.MinBedrooms)
	}

	query := propertySelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY p.created_at DESC, p.rowid DESC"

	return r.queryProperties(ctx, query, args...)
}

func (r *propertyRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Property, error) {
	return r.queryProperties(ctx,
		propertySelect+` WHERE p.owner_id = ? ORDER BY p.created_at DESC, p.rowid DESC`, ownerID)
}

func (r *propertyRepo) Update(ctx context.Context, p *domain.Property) error {
	features, images, err := encodeLists(p)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE properties SET title = ?, description = ?, price = ?, location = ?, type = ?, bedrooms = ?,
		 bathrooms = ?, area = ?, year_built = ?, parking = ?, features = ?, images = ?, updated_at = ?
		 WHERE id = ?`,
		p.Title, p.Description, p.Price, p.Location, p.Type, p.Bedrooms,
		p.Bathrooms, p.Area, nullInt(p.YearBuilt), p.Parking, features, images, now, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	p.UpdatedAt = now
	return nil
}

func (r *propertyRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *propertyRepo) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := r.db.QueryRowContext(ctx,
		"UPDATE properties SET views = views + 1 WHERE id = ? RETURNING views", id,
	).Scan(&views)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return views, nil
}

func (r *propertyRepo) queryProperties(ctx context.Context, query string, args ...any) ([]domain.Property, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	properties := []domain.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, *p)
	}
	return properties, rows.Err()
}

func scanProperty(s scanner) (*domain.Property, error) {
	var (
		p     domain.Property
		owner domain.User
		raw   propertyRaw
	)
	dest := append(propertyDest(&p, &raw), userDest(&owner)...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if err := raw.apply(&p); err != nil {
		return nil, err
	}
	p.Owner = &owner
	return &p, nil
}

// propertyRaw holds columns that need decoding after Scan.
type propertyRaw struct {
	yearBuilt sql.NullInt64
	features  string
	images    string
}

func propertyDest(p *domain.Property, raw *propertyRaw) []any {
	return []any{
		&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.Price, &p.Location, &p.Type,
		&p.Bedrooms, &p.Bathrooms, &p.Area, &raw.yearBuilt, &p.Parking, &raw.features, &raw.images, &p.Views,
		&p.CreatedAt, &p.UpdatedAt,
	}
}

func (raw *propertyRaw) apply(p *domain.Property) error {
	if raw.yearBuilt.Valid {
		y := int(raw.yearBuilt.Int64)
		p.YearBuilt = &y
	}
	if err := json.Unmarshal([]byte(raw.features), &p.Features); err != nil {
		return fmt.Errorf("decode features: %w", err)
	}
	if err := json.Unmarshal([]byte(raw.images), &p.Images); err != nil {
		return fmt.Errorf("decode images: %w", err)
	}
	return nil
}

func encodeLists(p *domain.Property) (string, string, error) {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	f, err := json.Marshal(features)
	if err != nil {
		return "", "", fmt.Errorf("encode features: %w", err)
	}
	i, err := json.Marshal(images)
	if err != nil {
		return "", "", fmt.Errorf("encode images: %w", err)
	}
	return string(f), string(i), nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
