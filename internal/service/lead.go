package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/msomdec/estate-listings/internal/authz"
	"github.com/msomdec/estate-listings/internal/domain"
	"github.com/msomdec/estate-listings/internal/events"
	"github.com/msomdec/estate-listings/internal/input"
)

// LeadService manages buyer inquiries.
type LeadService struct {
	leads      domain.LeadRepository
	properties domain.PropertyRepository
	publisher  events.Publisher
	readGuard  authz.Guard[*domain.Lead]
	writeGuard authz.Guard[*domain.Lead]
}

// NewLeadService creates a LeadService. publisher may be nil.
func NewLeadService(leads domain.LeadRepository, properties domain.PropertyRepository, publisher events.Publisher) *LeadService {
	return &LeadService{
		leads:      leads,
		properties: properties,
		publisher:  publisher,
		readGuard:  authz.Guard[*domain.Lead]{Load: leads.GetByID, Owns: authz.LeadParticipant},
		writeGuard: authz.Guard[*domain.Lead]{Load: leads.GetByID, Owns: authz.LeadAuthor},
	}
}

// ReadGuard admits the lead's buyer, its agent and admins.
func (s *LeadService) ReadGuard() authz.Guard[*domain.Lead] { return s.readGuard }

// WriteGuard admits the lead's buyer and admins.
func (s *LeadService) WriteGuard() authz.Guard[*domain.Lead] { return s.writeGuard }

// Create records an inquiry from who about a property. The agent is always
// the property's owner.
func (s *LeadService) Create(ctx context.Context, who domain.Identity, propertyID, message string) (*domain.Lead, error) {
	propertyID = strings.TrimSpace(propertyID)
	message = input.SanitizeText(message)
	if propertyID == "" || message == "" {
		return nil, fmt.Errorf("%w: propertyId and message are required", domain.ErrInvalidInput)
	}

	property, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: property does not exist", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("get property: %w", err)
	}
	if property.OwnerID == who.ID {
		return nil, fmt.Errorf("%w: cannot send an inquiry about your own property", domain.ErrInvalidInput)
	}

	lead := &domain.Lead{
		PropertyID: property.ID,
		AgentID:    property.OwnerID,
		BuyerID:    who.ID,
		Message:    message,
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}

	s.publishCreated(ctx, lead)

	created, err := s.leads.GetByID(ctx, lead.ID)
	if err != nil {
		return nil, fmt.Errorf("reload lead: %w", err)
	}
	return created, nil
}

// ListAll returns every lead. Callers gate this to admins.
func (s *LeadService) ListAll(ctx context.Context) ([]domain.Lead, error) {
	leads, err := s.leads.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

// ListForAgent returns leads addressed to who.
func (s *LeadService) ListForAgent(ctx context.Context, who domain.Identity) ([]domain.Lead, error) {
	leads, err := s.leads.ListByAgent(ctx, who.ID)
	if err != nil {
		return nil, fmt.Errorf("list agent leads: %w", err)
	}
	return leads, nil
}

// ListForBuyer returns leads written by who.
func (s *LeadService) ListForBuyer(ctx context.Context, who domain.Identity) ([]domain.Lead, error) {
	leads, err := s.leads.ListByBuyer(ctx, who.ID)
	if err != nil {
		return nil, fmt.Errorf("list buyer leads: %w", err)
	}
	return leads, nil
}

// Get returns a lead if who takes part in it or is an admin.
func (s *LeadService) Get(ctx context.Context, id string, who domain.Identity) (*domain.Lead, error) {
	return s.readGuard.Check(ctx, id, who)
}

// Update replaces the message. Only the buyer who wrote it or an admin may.
func (s *LeadService) Update(ctx context.Context, id string, who domain.Identity, message string) (*domain.Lead, error) {
	lead, err := s.writeGuard.Check(ctx, id, who)
	if err != nil {
		return nil, err
	}
	return s.Edit(ctx, lead, message)
}

// Edit is Update for a lead already admitted by WriteGuard.
func (s *LeadService) Edit(ctx context.Context, lead *domain.Lead, message string) (*domain.Lead, error) {
	message = input.SanitizeText(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}
	lead.Message = message

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("update lead: %w", err)
	}
	return lead, nil
}

// Delete removes a lead. Callers gate this to admins.
func (s *LeadService) Delete(ctx context.Context, id string) error {
	if err := s.leads.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	return nil
}

func (s *LeadService) publishCreated(ctx context.Context, lead *domain.Lead) {
	if s.publisher == nil {
		return
	}
	e, err := events.LeadCreated(lead)
	if err == nil {
		err = s.publisher.Publish(ctx, e)
	}
	if err != nil {
		slog.Warn("failed to publish lead event", "lead_id", lead.ID, "error", err)
	}
}
