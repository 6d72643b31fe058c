package usecase

import (
	"context"
	"errors"
	"testing"

	"stayhub/internal/data/entity"
	"stayhub/internal/data/repository/repotest"
	"stayhub/internal/dto/request"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestCreateListing_HostIsCaller(t *testing.T) {
	store := repotest.NewStore()
	host := seedUser(t, store, "host@example.com")
	svc := NewListingService(store.Repository(), zap.NewNop())

	resp, err := svc.CreateListing(context.Background(), callerFor(host), &request.ListingRequest{
		Name:          "Lake House",
		Description:   "By the lake",
		Location:      "Bishoftu",
		PricePerNight: price("120.50"),
	})
	if err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	if resp.HostID != host.ID.String() || resp.PricePerNight != "120.50" {
		t.Errorf("listing = %+v", resp)
	}

	if _, err := svc.CreateListing(context.Background(), Caller{}, &request.ListingRequest{}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous create err = %v, want ErrUnauthorized", err)
	}
}

func TestCreateListing_Validation(t *testing.T) {
	store := repotest.NewStore()
	host := seedUser(t, store, "host@example.com")
	svc := NewListingService(store.Repository(), zap.NewNop())

	tests := []struct {
		name      string
		req       request.ListingRequest
		wantField string
	}{
		{"missing name", request.ListingRequest{Description: "d", Location: "l", PricePerNight: price("10")}, "name"},
		{"missing price", request.ListingRequest{Name: "n", Description: "d", Location: "l"}, "price_per_night"},
		{"negative price", request.ListingRequest{Name: "n", Description: "d", Location: "l", PricePerNight: price("-1")}, "price_per_night"},
		{"too precise", request.ListingRequest{Name: "n", Description: "d", Location: "l", PricePerNight: price("1.005")}, "price_per_night"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateListing(context.Background(), callerFor(host), &tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := verr.Fields[tt.wantField]; !ok {
				t.Errorf("fields = %v, want %s", verr.Fields, tt.wantField)
			}
		})
	}
}

func TestListingWrites_HostOnly(t *testing.T) {
	store := repotest.NewStore()
	host := seedUser(t, store, "host@example.com")
	other := seedUser(t, store, "other@example.com")
	listing := seedListing(t, store, host, "Lake House", 100)
	svc := NewListingService(store.Repository(), zap.NewNop())
	ctx := context.Background()
	name := "Renamed"

	if _, err := svc.PatchListing(ctx, callerFor(other), listing.ID.String(), &request.PatchListingRequest{Name: &name}); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-host patch err = %v, want ErrForbidden", err)
	}
	if err := svc.DeleteListing(ctx, callerFor(other), listing.ID.String()); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-host delete err = %v, want ErrForbidden", err)
	}
	if err := svc.DeleteListing(ctx, Caller{}, listing.ID.String()); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous delete err = %v, want ErrUnauthorized", err)
	}

	resp, err := svc.PatchListing(ctx, callerFor(host), listing.ID.String(), &request.PatchListingRequest{Name: &name})
	if err != nil {
		t.Fatalf("host patch: %v", err)
	}
	if resp.Name != "Renamed" || resp.HostID != host.ID.String() {
		t.Errorf("listing = %+v", resp)
	}

	if err := svc.DeleteListing(ctx, callerFor(host), listing.ID.String()); err != nil {
		t.Fatalf("host delete: %v", err)
	}
	if _, err := svc.GetListing(ctx, listing.ID.String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}
}

func TestListListings_FiltersAndOrdering(t *testing.T) {
	store := repotest.NewStore()
	host := seedUser(t, store, "host@example.com")
	seedListing(t, store, host, "Cabin", 80)
	seedListing(t, store, host, "Apartment", 150)
	seedListing(t, store, host, "Villa", 400)
	svc := NewListingService(store.Repository(), zap.NewNop())
	ctx := context.Background()

	all, err := svc.ListListings(ctx, &request.ListingQuery{})
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if all.Count != 3 || all.Results[0].Name != "Apartment" {
		t.Errorf("default order = %+v", all.Results)
	}
	if all.Pagination.PerPage != 10 || all.Pagination.Page != 1 {
		t.Errorf("pagination = %+v", all.Pagination)
	}

	ranged, err := svc.ListListings(ctx, &request.ListingQuery{MinPrice: "100", MaxPrice: "200"})
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if ranged.Count != 1 || ranged.Results[0].Name != "Apartment" {
		t.Errorf("price range = %+v", ranged.Results)
	}

	desc, err := svc.ListListings(ctx, &request.ListingQuery{Ordering: "-price_per_night"})
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if desc.Results[0].Name != "Villa" {
		t.Errorf("first by -price = %s, want Villa", desc.Results[0].Name)
	}

	search, err := svc.ListListings(ctx, &request.ListingQuery{Search: "cab"})
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if search.Count != 1 {
		t.Errorf("search count = %d, want 1", search.Count)
	}

	paged, err := svc.ListListings(ctx, &request.ListingQuery{PaginatedRequest: request.PaginatedRequest{Page: 2, PerPage: 2}})
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if len(paged.Results) != 1 || paged.Pagination.TotalPages != 2 || paged.Pagination.HasNext {
		t.Errorf("page 2 = %+v", paged)
	}

	if _, err := svc.ListListings(ctx, &request.ListingQuery{Ordering: "host_password"}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad ordering err = %v, want ErrValidation", err)
	}
	if _, err := svc.ListListings(ctx, &request.ListingQuery{MinPrice: "cheap"}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad min_price err = %v, want ErrValidation", err)
	}
}

func TestDeleteListing_RefusedWhilePaymentOutstanding(t *testing.T) {
	tests := []struct {
		name    string
		status  entity.PaymentStatus
		refused bool
	}{
		{"pending payment", entity.PaymentStatusPending, true},
		{"completed payment", entity.PaymentStatusCompleted, true},
		{"failed payment", entity.PaymentStatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repotest.NewStore()
			host := seedUser(t, store, "host@example.com")
			guest := seedUser(t, store, "guest@example.com")
			listing := seedListing(t, store, host, "Lake House", 100)
			booking := seedBooking(t, store, guest, listing)
			seedPayment(t, store, booking, tt.status)
			svc := NewListingService(store.Repository(), zap.NewNop())
			ctx := context.Background()

			err := svc.DeleteListing(ctx, callerFor(host), listing.ID.String())
			got, findErr := store.Repository().Listing.FindByID(ctx, listing.ID)
			if findErr != nil {
				t.Fatalf("FindByID: %v", findErr)
			}
			gotBooking, _ := store.Repository().Booking.FindByID(ctx, booking.ID)

			if tt.refused {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("err = %v, want ValidationError", err)
				}
				if got == nil || gotBooking == nil {
					t.Errorf("listing or booking removed despite refusal")
				}
				if len(store.Payments()) != 1 {
					t.Errorf("payments = %d, want 1", len(store.Payments()))
				}
				return
			}

			if err != nil {
				t.Fatalf("DeleteListing: %v", err)
			}
			if got != nil || gotBooking != nil {
				t.Errorf("listing or booking survived delete")
			}
		})
	}
}
