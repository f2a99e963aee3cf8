package domain

import (
	"context"
	"strings"
	"time"
)

type ListingType string

const (
	ListingForSale ListingType = "For Sale"
	ListingForRent ListingType = "For Rent"
)

// ParseListingType accepts "For Sale"/"For Rent" in any case and spacing,
// or the short forms "sale" and "rent".
func ParseListingType(s string) (ListingType, bool) {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "for sale", "sale":
		return ListingForSale, true
	case "for rent", "rent":
		return ListingForRent, true
	}
	return "", false
}

type Property struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Price       float64
	Location    string
	Type        ListingType
	Bedrooms    int
	Bathrooms   int
	Area        float64
	YearBuilt   *int
	Parking     string
	Features    []string
	Images      []string // Ordered media reference URLs
	Views       int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Owner *User // Populated by list/detail queries
}

// PropertyFilter narrows List results. Zero values mean "no constraint".
type PropertyFilter struct {
	Search      string
	Type        ListingType
	MinPrice    *float64
	MaxPrice    *float64
	MinBedrooms *int
}

type PropertyRepository interface {
	Create(ctx context.Context, property *Property) error
	GetByID(ctx context.Context, id string) (*Property, error)
	List(ctx context.Context, filter PropertyFilter) ([]Property, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Property, error)
	Update(ctx context.Context, property *Property) error
	Delete(ctx context.Context, id string) error
	// IncrementViews atomically adds one to the view counter and returns the new value.
	IncrementViews(ctx context.Context, id string) (int64, error)
}
