// Package authz holds the ownership and role predicates shared by the HTTP
// route guards and the services.
package authz

import (
	"context"
	"slices"

	"github.com/msomdec/estate-listings/internal/domain"
)

// Loader fetches a resource by id. It returns domain.ErrNotFound when the
// resource does not exist.
type Loader[T any] func(ctx context.Context, id string) (T, error)

// Predicate reports whether the identity may act on the resource.
type Predicate[T any] func(resource T, who domain.Identity) bool

// Guard pairs a loader with an ownership predicate.
type Guard[T any] struct {
	Load Loader[T]
	Owns Predicate[T]
}

// Check loads the resource and applies the predicate. Errors from the loader
// are returned unchanged; a failed predicate yields domain.ErrForbidden.
func (g Guard[T]) Check(ctx context.Context, id string, who domain.Identity) (T, error) {
	res, err := g.Load(ctx, id)
	if err != nil {
		var zero T
		return zero, err
	}
	if !g.Owns(res, who) {
		var zero T
		return zero, domain.ErrForbidden
	}
	return res, nil
}

// HasRole reports whether who holds one of the allowed roles.
func HasRole(who domain.Identity, allowed ...domain.Role) bool {
	return slices.Contains(allowed, who.Role)
}

// PropertyOwner allows only the listing's owner.
func PropertyOwner(p *domain.Property, who domain.Identity) bool {
	return p != nil && who.ID != "" && p.OwnerID == who.ID
}

// LeadParticipant allows the lead's buyer, its agent, or an admin.
func LeadParticipant(l *domain.Lead, who domain.Identity) bool {
	if l == nil || who.ID == "" {
		return false
	}
	return who.Role == domain.RoleAdmin || l.BuyerID == who.ID || l.AgentID == who.ID
}

// LeadAuthor allows the buyer who wrote the lead, or an admin.
func LeadAuthor(l *domain.Lead, who domain.Identity) bool {
	if l == nil || who.ID == "" {
		return false
	}
	return who.Role == domain.RoleAdmin || l.BuyerID == who.ID
}
