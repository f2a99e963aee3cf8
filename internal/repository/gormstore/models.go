package gormstore

import (
	"time"

	"github.com/msomdec/estate-listings/internal/domain"
)

type userModel struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Email        string `gorm:"uniqueIndex;not null"`
	Name         string `gorm:"not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(16);not null;default:buyer"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

type propertyModel struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	OwnerID     string `gorm:"type:varchar(36);not null;index"`
	Title       string `gorm:"not null"`
	Description string
	Price       float64
	Location    string
	Type        string `gorm:"type:varchar(16);not null"`
	Bedrooms    int
	Bathrooms   int
	Area        float64
	YearBuilt   *int
	Parking     string
	Features    []string `gorm:"serializer:json;type:text"`
	Images      []string `gorm:"serializer:json;type:text"`
	Views       int64    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Owner userModel `gorm:"foreignKey:OwnerID;references:ID"`
}

func (propertyModel) TableName() string { return "properties" }

type leadModel struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	PropertyID string `gorm:"type:varchar(36);not null;index"`
	AgentID    string `gorm:"type:varchar(36);not null;index"`
	BuyerID    string `gorm:"type:varchar(36);not null;index"`
	Message    string `gorm:"type:text;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Property propertyModel `gorm:"foreignKey:PropertyID;references:ID;constraint:OnDelete:CASCADE"`
	Agent    userModel     `gorm:"foreignKey:AgentID;references:ID"`
	Buyer    userModel     `gorm:"foreignKey:BuyerID;references:ID"`
}

func (leadModel) TableName() string { return "leads" }

type fileBlobModel struct {
	StorageKey  string `gorm:"primaryKey"`
	ContentType string `gorm:"not null"`
	Data        []byte `gorm:"not null"`
	CreatedAt   time.Time
}

func (fileBlobModel) TableName() string { return "file_blobs" }

func userFromDomain(u *domain.User) userModel {
	return userModel{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (m userModel) toDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func propertyFromDomain(p *domain.Property) propertyModel {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return propertyModel{
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
		Features:    features,
		Images:      images,
		Views:       p.Views,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (m propertyModel) toDomain() *domain.Property {
	p := &domain.Property{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Description: m.Description,
		Price:       m.Price,
		Location:    m.Location,
		Type:        domain.ListingType(m.Type),
		Bedrooms:    m.Bedrooms,
		Bathrooms:   m.Bathrooms,
		Area:        m.Area,
		YearBuilt:   m.YearBuilt,
		Parking:     m.Parking,
		Features:    m.Features,
		Images:      m.Images,
		Views:       m.Views,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if m.Owner.ID != "" {
		p.Owner = m.Owner.toDomain()
	}
	return p
}

func (m leadModel) toDomain() *domain.Lead {
	l := &domain.Lead{
		ID:         m.ID,
		PropertyID: m.PropertyID,
		AgentID:    m.AgentID,
		BuyerID:    m.BuyerID,
		Message:    m.Message,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.Property.ID != "" {
		l.Property = m.Property.toDomain()
	}
	if m.Agent.ID != "" {
		l.Agent = m.Agent.toDomain()
	}
	if m.Buyer.ID != "" {
		l.Buyer = m.Buyer.toDomain()
	}
	return l
}
