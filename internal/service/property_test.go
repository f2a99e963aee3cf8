package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/msomdec/estate-listings/internal/domain"
	"github.com/msomdec/estate-listings/internal/input"
	"github.com/msomdec/estate-listings/internal/media"
	"github.com/msomdec/estate-listings/internal/service"
)

var pngBytes = []byte("\x89PNG\x0D\x0A\x1A\x0A" + strings.Repeat("\x00", 16))

type fakeUploader struct {
	mu sync.Mutex
	n  int
}

func (f *fakeUploader) Upload(_ context.Context, file media.File) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return "https://cdn.example.com/" + file.Name, nil
}

type propertyFixture struct {
	svc   *service.PropertyService
	owner domain.Identity
	other domain.Identity
	db    interface {
		Properties() domain.PropertyRepository
	}
}

func newPropertyFixture(t *testing.T, policy input.NumberPolicy) propertyFixture {
	t.Helper()
	db := newTestDB(t)
	auth := service.NewAuthService(db.Users(), testJWTSecret, 4, 0)
	owner := register(t, auth, "owner@example.com", "agent")
	other := register(t, auth, "other@example.com", "agent")
	return propertyFixture{
		svc:   service.NewPropertyService(db.Properties(), &fakeUploader{}, policy),
		owner: owner.Identity(),
		other: other.Identity(),
		db:    db,
	}
}

func (f propertyFixture) create(t *testing.T, in service.PropertyInput) *domain.Property {
	t.Helper()
	if in.Title == "" {
		in.Title = "Sunny Flat"
	}
	if in.Location == "" {
		in.Location = "Nairobi"
	}
	p, err := f.svc.Create(context.Background(), f.owner, in, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return p
}

func TestPropertyService_Create(t *testing.T) {
	f := newPropertyFixture(t, input.Lenient)

	p := f.create(t, service.PropertyInput{
		Title:       "  Garden House ",
		Description: "Line one\r\n\r\n\r\n\r\n  Line two  ",
		Price:       "125000.50",
		Bedrooms:    "3",
		Bathrooms:   "2",
		Area:        "140",
		YearBuilt:   "1999",
		Type:        "For Rent",
	})

	if p.Title != "Garden House" {
		t.Fatalf("expected trimmed title, got %q", p.Title)
	}
	if p.Description != "Line one\n\nLine two" {
		t.Fatalf("expected sanitized description, got %q", p.Description)
	}
	if p.Price != 125000.50 || p.Bedrooms != 3 || p.Bathrooms != 2 || p.Area != 140 {
		t.Fatalf("unexpected numbers: %+v", p)
	}
	if p.YearBuilt == nil || *p.YearBuilt != 1999 {
		t.Fatalf("expected year built 1999, got %v", p.YearBuilt)
	}
	if p.Type != domain.ListingForRent {
		t.Fatalf("expected For Rent, got %s", p.Type)
	}
	if p.OwnerID != f.owner.ID || p.Owner == nil {
		t.Fatal("expected owner to be set and embedded")
	}
	if p.Views != 0 {
		t.Fatalf("expected 0 views, got %d", p.Views)
	}
}

func TestPropertyService_Create_DefaultsAndValidation(t *testing.T) {
	f := newPropertyFixture(t, input.Lenient)
	ctx := context.Background()

	p := f.create(t, service.PropertyInput{})
	if p.Type != domain.ListingForSale {
		t.Fatalf("expected default type For Sale, got %s", p.Type)
	}

	tests := []struct {
		name string
		in   service.PropertyInput
	}{
		{"missing title", service.PropertyInput{Location: "X"}},
		{"missing location", service.PropertyInput{Title: "X"}},
		{"whitespace title", service.PropertyInput{Title: " \n ", Location: "X"}},
		{"bad type", service.PropertyInput{Title: "X", Location: "X", Type: "For Lease"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Create(ctx, f.owner, tc.in, nil); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestPropertyService_FeaturesRoundTrip(t *testing.T) {
	f := newPropertyFixture(t, input.Lenient)

	for _, raw := range []string{"Gym, Pool", `["Gym","Pool"]`, "Gym,Pool,Gym"} {
		p := f.create(t, service.PropertyInput{Features: raw})
		if len(p.Features) != 2 || p.Features[0] != "Gym" || p.Features[1] != "Pool" {
			t.Fatalf("features %q: got %v", raw, p.Features)
		}
	}
}

func TestPropertyService_NumberPolicy(t *testing.T) {
	t.Run("lenient stores zero", func(t *testing.T) {
		f := newPropertyFixture(t, input.Lenient)
		p := f.create(t, service.PropertyInput{Price: "abc", Bedrooms: "-2", YearBuilt: "old"})
		if p.Price != 0 || p.Bedrooms != 0 {
			t.Fatalf("expected zeroes, got price=%v bedrooms=%d", p.Price, p.Bedrooms)
		}
		if p.YearBuilt != nil {
			t.Fatalf("expected no year built, got %d", *p.YearBuilt)
		}
	})

	t.Run("strict rejects", func(t *testing.T) {
		f := newPropertyFixture(t, input.Strict)
		_, err := f.svc.Create(context.Background(), f.owner, service.PropertyInput{
			Title: "X", Location: "Y", Price: "abc",
		}, nil)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestPropertyService_UpdateIgnoresUnusableNumbers(t *testing.T) {
	ctx := context.Background()

	t.Run("lenient keeps stored values", func(t *testing.T) {
		f := newPropertyFixture(t, input.Lenient)
		p := f.create(t, service.PropertyInput{Price: "100", Bedrooms: "3", YearBuilt: "2001"})

		updated, err := f.svc.Update(ctx, p.ID, f.owner, service.PropertyInput{
			Title: "Renamed", Price: "abc", Bedrooms: "-1", YearBuilt: "abc",
		}, nil)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if updated.Price != 100 || updated.Bedrooms != 3 {
			t.Fatalf("expected stored numbers, got price=%v bedrooms=%d", updated.Price, updated.Bedrooms)
		}
		if updated.YearBuilt == nil || *updated.YearBuilt != 2001 {
			t.Fatalf("expected year built 2001 to be kept, got %v", updated.YearBuilt)
		}
	})

	t.Run("strict rejects", func(t *testing.T) {
		f := newPropertyFixture(t, input.Strict)
		p := f.create(t, service.PropertyInput{YearBuilt: "2001"})

		_, err := f.svc.Update(ctx, p.ID, f.owner, service.PropertyInput{YearBuilt: "abc"}, nil)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestPropertyService_CreateImages(t *testing.T) {
	f := newPropertyFixture(t, input.Lenient)

	p, err := f.svc.Create(context.Background(), f.owner, service.PropertyInput{
		Title: "Pics", Location: "Accra",
		Images: `["https://img.example.com/existing.jpg"]`,
	}, []media.File{{Name: "front.png", Data: pngBytes}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := []string{"https://cdn.example.com/front.png", "https://img.example.com/existing.jpg"}
	if len(p.Images) != len(want) || p.Images[0] != want[0] || p.Images[1] != want[1] {
		t.Fatalf("expected uploads first, got %v", p.Images)
	}

	literal := f.create(t, service.PropertyInput{Images: "https://img.example.com/a,b.jpg"})
	if len(literal.Images) != 1 || literal.Images[0] != "https://img.example.com/a,b.jpg" {
		t.Fatalf("expected single literal URL, got %v", literal.Images)
	}
}

func TestPropertyService_Update(t *testing.T) {
	f := newPropertyFixture(t, input.Lenient)
	ctx := context.Background()
	p := f.create(t, service.PropertyInput{Price: "100", Features: "Gym", Images: `["a.jpg","b.jpg"]`})

	updated, err := f.svc.Update(ctx, p.ID, f.owner, service.PropertyInput{
		Title:          "Renamed",
		Price:          "200",
		ExistingImages: `["b.jpg"]`,
	}, []media.File{{Name: "c.png", Data: pngBytes}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Renamed" || updated.Price != 200 {
		t.Fatalf("unexpected update: %+v", updated)
	}
	if updated.Location != p.Location || len(updated.Features) != 1 {
		t.Fatal("empty fields should keep stored values")
	}
	if len(updated.Images) != 2 || updated.Images[0] != "b.jpg" || updated.Images[1] != "https://cdn.example.com/c.png" {
		t.Fatalf("expected existing then uploaded images, got %v", updated.Images)
	}

	kept, err := f.svc.Update(ctx, p.ID, f.owner, service.PropertyInput{ExistingImages: "[]"}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(kept.Images) != 2 {
		t.Fatalf("an empty image list must not clear images, got %v", kept.Images)
	}
}

func TestPropertyService_UpdateWithNoChangesIsIdempotent(t *testing.T) {
	f := newPropertyFixture(t, input.Lenient)
	ctx := context.Background()
	p := f.create(t, service.PropertyInput{Price: "100", YearBuilt: "2001", Features: "Gym", Images: "x.jpg"})

	before, err := f.db.Properties().GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if _, err := f.svc.Update(ctx, p.ID, f.owner, service.PropertyInput{}, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := f.svc.Update(ctx, p.ID, f.owner, service.PropertyInput{Title: before.Title, Price: "100"}, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}

	after, err := f.db.Properties().GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) || after.Title != before.Title || after.Price != before.Price ||
		*after.YearBuilt != *before.YearBuilt || len(after.Features) != 1 || len(after.Images) != 1 {
		t.Fatalf("record changed:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestPropertyService_NonOwnerCannotMutate(t *testing.T) {
	f := newPropertyFixture(t, input.Lenient)
	ctx := context.Background()
	p := f.create(t, service.PropertyInput{Title: "Mine"})

	if _, err := f.svc.Update(ctx, p.ID, f.other, service.PropertyInput{Title: "Stolen"}, nil); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden on update, got %v", err)
	}
	if err := f.svc.Delete(ctx, p.ID, f.other); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden on delete, got %v", err)
	}

	got, err := f.db.Properties().GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("property should still exist: %v", err)
	}
	if got.Title != "Mine" {
		t.Fatalf("property was modified: %q", got.Title)
	}

	if _, err := f.svc.Update(ctx, "missing", f.owner, service.PropertyInput{Title: "x"}, nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := f.svc.Delete(ctx, p.ID, f.owner); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestPropertyService_GetCountsViews(t *testing.T) {
	f := newPropertyFixture(t, input.Lenient)
	ctx := context.Background()
	p := f.create(t, service.PropertyInput{})

	for i := 1; i <= 5; i++ {
		got, err := f.svc.Get(ctx, p.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Views != int64(i) {
			t.Fatalf("fetch %d: expected views %d, got %d", i, i, got.Views)
		}
	}

	if _, err := f.svc.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPropertyService_GetConcurrent(t *testing.T) {
	f := newPropertyFixture(t, input.Lenient)
	ctx := context.Background()
	p := f.create(t, service.PropertyInput{})

	const fetchers, each = 8, 5
	var wg sync.WaitGroup
	for range fetchers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range each {
				if _, err := f.svc.Get(ctx, p.ID); err != nil {
					t.Errorf("Get: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	got, err := f.db.Properties().GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Views > fetchers*each {
		t.Fatalf("views %d exceed fetch count %d", got.Views, fetchers*each)
	}
}

func TestPropertyService_ListAndListMine(t *testing.T) {
	f := newPropertyFixture(t, input.Lenient)
	ctx := context.Background()
	f.create(t, service.PropertyInput{Title: "One", Type: "For Sale"})
	f.create(t, service.PropertyInput{Title: "Two", Type: "For Rent"})
	if _, err := f.svc.Create(ctx, f.other, service.PropertyInput{Title: "Three", Location: "Lima"}, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	all, err := f.svc.List(ctx, domain.PropertyFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].Title != "Three" {
		t.Fatalf("expected 3 newest first, got %d", len(all))
	}

	rent, err := f.svc.List(ctx, domain.PropertyFilter{Type: domain.ListingForRent})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rent) != 1 || rent[0].Title != "Two" {
		t.Fatalf("unexpected filtered list: %+v", rent)
	}

	mine, err := f.svc.ListMine(ctx, f.owner)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 2 || mine[0].Title != "Two" {
		t.Fatalf("unexpected own list: %+v", mine)
	}
}
