package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/msomdec/estate-listings/internal/authz"
	"github.com/msomdec/estate-listings/internal/domain"
	"github.com/msomdec/estate-listings/internal/input"
	"github.com/msomdec/estate-listings/internal/media"
)

// PropertyInput holds raw form values. Every field arrives as text so that
// multipart and JSON requests go through the same normalization.
type PropertyInput struct {
	Title          string
	Description    string
	Price          string
	Location       string
	Type           string
	Bedrooms       string
	Bathrooms      string
	Area           string
	YearBuilt      string
	Parking        string
	Features       string // JSON array or comma separated
	Images         string // JSON array or a single URL
	ExistingImages string // JSON array, update only
}

// PropertyService manages listings and enforces ownership on mutation.
type PropertyService struct {
	properties domain.PropertyRepository
	uploader   media.Uploader
	numbers    input.NumberPolicy
	guard      authz.Guard[*domain.Property]
}

// NewPropertyService creates a PropertyService. uploader may be nil, in
// which case requests carrying files are rejected.
func NewPropertyService(properties domain.PropertyRepository, uploader media.Uploader, numbers input.NumberPolicy) *PropertyService {
	return &PropertyService{
		properties: properties,
		uploader:   uploader,
		numbers:    numbers,
		guard: authz.Guard[*domain.Property]{
			Load: properties.GetByID,
			Owns: authz.PropertyOwner,
		},
	}
}

// Guard returns the ownership check used for update and delete, so routes
// can apply it before the handler runs.
func (s *PropertyService) Guard() authz.Guard[*domain.Property] {
	return s.guard
}

// List returns all properties matching filter, newest first.
func (s *PropertyService) List(ctx context.Context, filter domain.PropertyFilter) ([]domain.Property, error) {
	properties, err := s.properties.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return properties, nil
}

// ListMine returns the caller's own properties, newest first.
func (s *PropertyService) ListMine(ctx context.Context, who domain.Identity) ([]domain.Property, error) {
	properties, err := s.properties.ListByOwner(ctx, who.ID)
	if err != nil {
		return nil, fmt.Errorf("list own properties: %w", err)
	}
	return properties, nil
}

// Get fetches a property and counts the view. The returned record carries
// the incremented counter.
func (s *PropertyService) Get(ctx context.Context, id string) (*domain.Property, error) {
	views, err := s.properties.IncrementViews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("increment views: %w", err)
	}
	p, err := s.properties.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get property: %w", err)
	}
	// A concurrent fetch may have bumped the counter again in between;
	// report the value this request produced.
	p.Views = views
	return p, nil
}

// Create stores a new property owned by who. Uploaded files go to the media
// delegate first; their URLs precede any URLs supplied in the Images field.
func (s *PropertyService) Create(ctx context.Context, who domain.Identity, in PropertyInput, files []media.File) (*domain.Property, error) {
	p := &domain.Property{
		OwnerID:     who.ID,
		Title:       input.SanitizeText(in.Title),
		Description: input.SanitizeText(in.Description),
		Location:    input.SanitizeText(in.Location),
		Parking:     input.SanitizeText(in.Parking),
		Type:        domain.ListingForSale,
	}
	if p.Title == "" || p.Location == "" {
		return nil, fmt.Errorf("%w: title and location are required", domain.ErrInvalidInput)
	}
	if t := strings.TrimSpace(in.Type); t != "" {
		lt, err := parseListingType(t)
		if err != nil {
			return nil, err
		}
		p.Type = lt
	}
	if err := s.applyNumbers(p, in); err != nil {
		return nil, err
	}
	p.Features = input.DecodeList(in.Features, input.JSONThenDelimited).Items

	uploaded, err := media.UploadAll(ctx, s.uploader, files)
	if err != nil {
		return nil, err
	}
	p.Images = input.MergeLists(input.JSONThenLiteral, jsonList(uploaded), in.Images)

	if err := s.properties.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create property: %w", err)
	}

	created, err := s.properties.GetByID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("reload property: %w", err)
	}
	return created, nil
}

// Update merges non-empty values into the stored property. Images are
// replaced by ExistingImages plus uploads, but only when that list is
// non-empty. An update that changes nothing does not write.
func (s *PropertyService) Update(ctx context.Context, id string, who domain.Identity, in PropertyInput, files []media.File) (*domain.Property, error) {
	p, err := s.guard.Check(ctx, id, who)
	if err != nil {
		return nil, err
	}
	return s.Edit(ctx, p, in, files)
}

// Edit is Update for a property whose ownership the caller has already
// checked through Guard.
func (s *PropertyService) Edit(ctx context.Context, p *domain.Property, in PropertyInput, files []media.File) (*domain.Property, error) {
	before := *p

	if v := input.SanitizeText(in.Title); v != "" {
		p.Title = v
	}
	if v := input.SanitizeText(in.Description); v != "" {
		p.Description = v
	}
	if v := input.SanitizeText(in.Location); v != "" {
		p.Location = v
	}
	if v := input.SanitizeText(in.Parking); v != "" {
		p.Parking = v
	}
	if t := strings.TrimSpace(in.Type); t != "" {
		lt, err := parseListingType(t)
		if err != nil {
			return nil, err
		}
		p.Type = lt
	}
	if err := s.applyNumbers(p, in); err != nil {
		return nil, err
	}
	if features := input.DecodeList(in.Features, input.JSONThenDelimited).Items; len(features) > 0 {
		p.Features = features
	}

	uploaded, err := media.UploadAll(ctx, s.uploader, files)
	if err != nil {
		return nil, err
	}
	if images := input.MergeLists(input.JSONThenLiteral, in.ExistingImages, jsonList(uploaded)); len(images) > 0 {
		p.Images = images
	}

	// Nothing changed: leave the row, including updated_at, as it is.
	if sameListing(&before, p) {
		return p, nil
	}

	if err := s.properties.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update property: %w", err)
	}

	updated, err := s.properties.GetByID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("reload property: %w", err)
	}
	return updated, nil
}

// Delete removes a property owned by who. Its leads go with it.
func (s *PropertyService) Delete(ctx context.Context, id string, who domain.Identity) error {
	p, err := s.guard.Check(ctx, id, who)
	if err != nil {
		return err
	}
	return s.Remove(ctx, p)
}

// Remove is Delete for a property whose ownership is already checked.
func (s *PropertyService) Remove(ctx context.Context, p *domain.Property) error {
	if err := s.properties.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	return nil
}

// applyNumbers parses the numeric fields that are present, leaving the
// rest of p untouched.
func (s *PropertyService) applyNumbers(p *domain.Property, in PropertyInput) error {
	if v, ok, err := s.numbers.Float("price", in.Price); err != nil {
		return err
	} else if ok {
		p.Price = v
	}
	if v, ok, err := s.numbers.Int("bedrooms", in.Bedrooms); err != nil {
		return err
	} else if ok {
		p.Bedrooms = v
	}
	if v, ok, err := s.numbers.Int("bathrooms", in.Bathrooms); err != nil {
		return err
	} else if ok {
		p.Bathrooms = v
	}
	if v, ok, err := s.numbers.Float("area", in.Area); err != nil {
		return err
	} else if ok {
		p.Area = v
	}
	if v, ok, err := s.numbers.OptionalInt("yearBuilt", in.YearBuilt); err != nil {
		return err
	} else if ok {
		p.YearBuilt = v
	}
	return nil
}

func parseListingType(s string) (domain.ListingType, error) {
	if lt, ok := domain.ParseListingType(s); ok {
		return lt, nil
	}
	return "", fmt.Errorf("%w: type must be %q or %q", domain.ErrInvalidInput, domain.ListingForSale, domain.ListingForRent)
}

// jsonList encodes urls so they survive MergeLists' JSON-first decoding even
// when a URL contains a comma.
func jsonList(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	b, err := json.Marshal(urls)
	if err != nil {
		return ""
	}
	return string(b)
}

func sameListing(a, b *domain.Property) bool {
	sameYear := (a.YearBuilt == nil && b.YearBuilt == nil) ||
		(a.YearBuilt != nil && b.YearBuilt != nil && *a.YearBuilt == *b.YearBuilt)
	return sameYear &&
		a.Title == b.Title &&
		a.Description == b.Description &&
		a.Price == b.Price &&
		a.Location == b.Location &&
		a.Type == b.Type &&
		a.Bedrooms == b.Bedrooms &&
		a.Bathrooms == b.Bathrooms &&
		a.Area == b.Area &&
		a.Parking == b.Parking &&
		slices.Equal(a.Features, b.Features) &&
		slices.Equal(a.Images, b.Images)
}
