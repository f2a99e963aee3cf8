package domain

import (
	"context"
	"time"
)

// Lead is a buyer's inquiry about a property, addressed to the property's owner.
type Lead struct {
	ID         string
	PropertyID string
	AgentID    string
	BuyerID    string
	Message    string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Related records, populated by read queries.
	Property *Property
	Agent    *User
	Buyer    *User
}

type LeadRepository interface {
	Create(ctx context.Context, lead *Lead) error
	GetByID(ctx context.Context, id string) (*Lead, error)
	ListAll(ctx context.Context) ([]Lead, error)
	ListByAgent(ctx context.Context, agentID string) ([]Lead, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]Lead, error)
	Update(ctx context.Context, lead *Lead) error
	Delete(ctx context.Context, id string) error
}
