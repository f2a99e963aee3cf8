package handler

import (
	"time"

	"github.com/msomdec/estate-listings/internal/domain"
)

// UserDTO is the JSON representation of a user. The password hash never
// leaves the server.
type UserDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}

func toUserDTOPtr(u *domain.User) *UserDTO {
	if u == nil {
		return nil
	}
	dto := toUserDTO(u)
	return &dto
}

// PropertyDTO is the JSON representation of a property listing.
type PropertyDTO struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"ownerId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Location    string   `json:"location"`
	Type        string   `json:"type"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   int      `json:"bathrooms"`
	Area        float64  `json:"area"`
	YearBuilt   *int     `json:"yearBuilt"`
	Parking     string   `json:"parking"`
	Features    []string `json:"features"`
	Images      []string `json:"images"`
	Views       int64    `json:"views"`
	Owner       *UserDTO `json:"owner,omitempty"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

func toPropertyDTO(p *domain.Property) PropertyDTO {
	dto := PropertyDTO{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Location:    p.Location,
		Type:        string(p.Type),
		Bedrooms:    p.Bedrooms,
		Bathrooms:   p.Bathrooms,
		Area:        p.Area,
		YearBuilt:   p.YearBuilt,
		Parking:     p.Parking,
		Features:    p.Features,
		Images:      p.Images,
		Views:       p.Views,
		Owner:       toUserDTOPtr(p.Owner),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
	if dto.Features == nil {
		dto.Features = []string{}
	}
	if dto.Images == nil {
		dto.Images = []string{}
	}
	return dto
}

func toPropertyDTOs(properties []domain.Property) []PropertyDTO {
	dtos := make([]PropertyDTO, len(properties))
	for i := range properties {
		dtos[i] = toPropertyDTO(&properties[i])
	}
	return dtos
}

// LeadDTO is the JSON representation of an inquiry, with its property and
// both parties embedded when loaded.
type LeadDTO struct {
	ID         string       `json:"id"`
	PropertyID string       `json:"propertyId"`
	AgentID    string       `json:"agentId"`
	BuyerID    string       `json:"buyerId"`
	Message    string       `json:"message"`
	Property   *PropertyDTO `json:"property,omitempty"`
	Agent      *UserDTO     `json:"agent,omitempty"`
	Buyer      *UserDTO     `json:"buyer,omitempty"`
	CreatedAt  string       `json:"createdAt"`
	UpdatedAt  string       `json:"updatedAt"`
}

func toLeadDTO(l *domain.Lead) LeadDTO {
	dto := LeadDTO{
		ID:         l.ID,
		PropertyID: l.PropertyID,
		AgentID:    l.AgentID,
		BuyerID:    l.BuyerID,
		Message:    l.Message,
		Agent:      toUserDTOPtr(l.Agent),
		Buyer:      toUserDTOPtr(l.Buyer),
		CreatedAt:  l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  l.UpdatedAt.Format(time.RFC3339),
	}
	if l.Property != nil {
		p := toPropertyDTO(l.Property)
		dto.Property = &p
	}
	return dto
}

func toLeadDTOs(leads []domain.Lead) []LeadDTO {
	dtos := make([]LeadDTO, len(leads))
	for i := range leads {
		dtos[i] = toLeadDTO(&leads[i])
	}
	return dtos
}
