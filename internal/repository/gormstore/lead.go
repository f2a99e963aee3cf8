package gormstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/msomdec/estate-listings/internal/domain"
	"gorm.io/gorm"
)

type leadRepo struct {
	db *gorm.DB
}

func (r *leadRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Property").Preload("Agent").Preload("Buyer")
}

func (r *leadRepo) Create(ctx context.Context, lead *domain.Lead) error {
	m := leadModel{
		ID:         uuid.NewString(),
		PropertyID: lead.PropertyID,
		AgentID:    lead.AgentID,
		BuyerID:    lead.BuyerID,
		Message:    lead.Message,
	}
	if err := r.db.WithContext(ctx).Omit("Property", "Agent", "Buyer").Create(&m).Error; err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	lead.ID = m.ID
	lead.CreatedAt = m.CreatedAt
	lead.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *leadRepo) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	var m leadModel
	if err := r.preloaded(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return m.toDomain(), nil
}

func (r *leadRepo) ListAll(ctx context.Context) ([]domain.Lead, error) {
	return findLeads(r.preloaded(ctx))
}

func (r *leadRepo) ListByAgent(ctx context.Context, agentID string) ([]domain.Lead, error) {
	return findLeads(r.preloaded(ctx).Where("agent_id = ?", agentID))
}

func (r *leadRepo) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Lead, error) {
	return findLeads(r.preloaded(ctx).Where("buyer_id = ?", buyerID))
}

func (r *leadRepo) Update(ctx context.Context, lead *domain.Lead) error {
	m := leadModel{ID: lead.ID, Message: lead.Message}
	res := r.db.WithContext(ctx).Model(&m).Select("message", "updated_at").Updates(&m)
	if res.Error != nil {
		return fmt.Errorf("update lead: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	lead.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *leadRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&leadModel{})
	if res.Error != nil {
		return fmt.Errorf("delete lead: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func findLeads(q *gorm.DB) ([]domain.Lead, error) {
	var models []leadModel
	if err := q.Order("created_at DESC").Order("id DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	leads := make([]domain.Lead, 0, len(models))
	for _, m := range models {
		leads = append(leads, *m.toDomain())
	}
	return leads, nil
}
