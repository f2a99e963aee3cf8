// Package events publishes domain notifications, such as a new lead, to
// downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/msomdec/estate-listings/internal/domain"
)

const TypeLeadCreated = "lead.created"

// Event is the envelope written to the bus.
type Event struct {
	Type       string          `json:"type"`
	Key        string          `json:"-"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type leadCreatedData struct {
	LeadID     string `json:"leadId"`
	PropertyID string `json:"propertyId"`
	AgentID    string `json:"agentId"`
	BuyerID    string `json:"buyerId"`
	Message    string `json:"message"`
}

// LeadCreated builds the event for a newly stored lead, keyed by agent so
// one agent's leads stay ordered within a partition.
func LeadCreated(l *domain.Lead) (Event, error) {
	data, err := json.Marshal(leadCreatedData{
		LeadID:     l.ID,
		PropertyID: l.PropertyID,
		AgentID:    l.AgentID,
		BuyerID:    l.BuyerID,
		Message:    l.Message,
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:       TypeLeadCreated,
		Key:        l.AgentID,
		OccurredAt: l.CreatedAt.UTC(),
		Data:       data,
	}, nil
}

// Log writes events to the structured log. It is used when no broker is
// configured.
type Log struct{}

func (Log) Publish(_ context.Context, e Event) error {
	slog.Info("event published", "type", e.Type, "key", e.Key, "data", string(e.Data))
	return nil
}

func (Log) Close() error { return nil }
