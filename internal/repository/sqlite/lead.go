package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/estate-listings/internal/domain"
)

// leadRepo implements domain.LeadRepository using SQLite.
type leadRepo struct {
	db *sql.DB
}

const leadSelect = `SELECT l.id, l.property_id, l.agent_id, l.buyer_id, l.message, l.created_at, l.updated_at,
	` + propertyColumns + `,
	a.id, a.email, a.name, a.password_hash, a.role, a.created_at, a.updated_at,
	b.id, b.email, b.name, b.password_hash, b.role, b.created_at, b.updated_at
	FROM leads l
	JOIN properties p ON p.id = l.property_id
	JOIN users a ON a.id = l.agent_id
	JOIN users b ON b.id = l.buyer_id`

func (r *leadRepo) Create(ctx context.Context, lead *domain.Lead) error {
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO leads (id, property_id, agent_id, buyer_id, message, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, lead.PropertyID, lead.AgentID, lead.BuyerID, lead.Message, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}

	lead.ID = id
	lead.CreatedAt = now
	lead.UpdatedAt = now
	return nil
}

func (r *leadRepo) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	row := r.db.QueryRowContext(ctx, leadSelect+` WHERE l.id = ?`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

func (r *leadRepo) ListAll(ctx context.Context) ([]domain.Lead, error) {
	return r.queryLeads(ctx, leadSelect+` ORDER BY l.created_at DESC, l.rowid DESC`)
}

func (r *leadRepo) ListByAgent(ctx context.Context, agentID string) ([]domain.Lead, error) {
	return r.queryLeads(ctx, leadSelect+` WHERE l.agent_id = ? ORDER BY l.created_at DESC, l.rowid DESC`, agentID)
}

func (r *leadRepo) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Lead, error) {
	return r.queryLeads(ctx, leadSelect+` WHERE l.buyer_id = ? ORDER BY l.created_at DESC, l.rowid DESC`, buyerID)
}

func (r *leadRepo) Update(ctx context.Context, lead *domain.Lead) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		"UPDATE leads SET message = ?, updated_at = ? WHERE id = ?",
		lead.Message, now, lead.ID,
	)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	lead.UpdatedAt = now
	return nil
}

func (r *leadRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM leads WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
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

func (r *leadRepo) queryLeads(ctx context.Context, query string, args ...any) ([]domain.Lead, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := []domain.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

func scanLead(s scanner) (*domain.Lead, error) {
	var (
		l     domain.Lead
		p     domain.Property
		raw   propertyRaw
		agent domain.User
		buyer domain.User
	)
	dest := []any{&l.ID, &l.PropertyID, &l.AgentID, &l.BuyerID, &l.Message, &l.CreatedAt, &l.UpdatedAt}
	dest = append(dest, propertyDest(&p, &raw)...)
	dest = append(dest, userDest(&agent)...)
	dest = append(dest, userDest(&buyer)...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if err := raw.apply(&p); err != nil {
		return nil, err
	}

	l.Property = &p
	l.Agent = &agent
	l.Buyer = &buyer
	return &l, nil
}
