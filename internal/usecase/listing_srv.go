package usecase

import (
	"context"
	"strings"
	"time"

	"stayhub/internal/data/entity"
	"stayhub/internal/data/repository"
	"stayhub/internal/dto/request"
	"stayhub/internal/dto/response"
	"stayhub/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ListingService interface {
	ListListings(ctx context.Context, query *request.ListingQuery) (*response.PaginatedResponse[response.ListingResponse], error)
	GetListing(ctx context.Context, id string) (*response.ListingResponse, error)
	CreateListing(ctx context.Context, caller Caller, req *request.ListingRequest) (*response.ListingResponse, error)
	UpdateListing(ctx context.Context, caller Caller, id string, req *request.ListingRequest) (*response.ListingResponse, error)
	PatchListing(ctx context.Context, caller Caller, id string, req *request.PatchListingRequest) (*response.ListingResponse, error)
	DeleteListing(ctx context.Context, caller Caller, id string) error
}

type listingService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewListingService(repo *repository.Repository, log *zap.Logger) ListingService {
	return &listingService{
		repo: repo,
		log:  log.With(zap.String("service", "listing")),
	}
}

func (s *listingService) ListListings(ctx context.Context, query *request.ListingQuery) (*response.PaginatedResponse[response.ListingResponse], error) {
	if errs := utils.ValidateStruct(query); len(errs) > 0 {
		return nil, invalidFields(errs)
	}
	if !repository.ValidOrdering(query.Ordering, repository.ListingOrderings) {
		return nil, invalidField("ordering", "Unsupported ordering")
	}
	query.Normalize()

	filter := repository.ListingFilter{
		Name:     strings.TrimSpace(query.Name),
		Location: strings.TrimSpace(query.Location),
		Search:   strings.TrimSpace(query.Search),
		Ordering: query.Ordering,
	}
	if query.MinPrice != "" {
		v, err := decimal.NewFromString(query.MinPrice)
		if err != nil {
			return nil, invalidField("min_price", "Must be a number")
		}
		filter.MinPrice = &v
	}
	if query.MaxPrice != "" {
		v, err := decimal.NewFromString(query.MaxPrice)
		if err != nil {
			return nil, invalidField("max_price", "Must be a number")
		}
		filter.MaxPrice = &v
	}
	if query.HostID != "" {
		hostID, err := uuid.Parse(query.HostID)
		if err != nil {
			return nil, invalidField("host_id", "Must be a valid UUID")
		}
		filter.HostID = &hostID
	}

	listings, err := s.repo.Listing.FindAll(ctx, filter, query.Offset(), query.Limit())
	if err != nil {
		return nil, internal("list listings", err)
	}
	total, err := s.repo.Listing.CountAll(ctx, filter)
	if err != nil {
		return nil, internal("count listings", err)
	}

	results := make([]response.ListingResponse, 0, len(listings))
	for _, listing := range listings {
		results = append(results, response.ListingToResponse(listing))
	}

	return response.NewPaginatedResponse(results, query.Page, query.Limit(), total), nil
}

func (s *listingService) GetListing(ctx context.Context, id string) (*response.ListingResponse, error) {
	listing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := response.ListingToResponse(listing)
	return &resp, nil
}

func (s *listingService) CreateListing(ctx context.Context, caller Caller, req *request.ListingRequest) (*response.ListingResponse, error) {
	if !caller.Authenticated {
		return nil, ErrUnauthorized
	}
	if err := validateListing(req); err != nil {
		return nil, err
	}

	now := time.Now()
	listing := &entity.Listing{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		HostID:        caller.ID,
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Location:      strings.TrimSpace(req.Location),
		PricePerNight: *req.PricePerNight,
	}

	if err := s.repo.Listing.Create(ctx, listing); err != nil {
		return nil, internal("create listing", err)
	}

	s.log.Info("Listing created",
		zap.String("listing_id", listing.ID.String()),
		zap.String("host_id", caller.ID.String()),
	)

	resp := response.ListingToResponse(listing)
	return &resp, nil
}

func (s *listingService) UpdateListing(ctx context.Context, caller Caller, id string, req *request.ListingRequest) (*response.ListingResponse, error) {
	listing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeListing(caller, listing, ActionWrite); err != nil {
		return nil, err
	}
	if err := validateListing(req); err != nil {
		return nil, err
	}

	listing.Name = strings.TrimSpace(req.Name)
	listing.Description = req.Description
	listing.Location = strings.TrimSpace(req.Location)
	listing.PricePerNight = *req.PricePerNight

	return s.save(ctx, listing)
}

func (s *listingService) PatchListing(ctx context.Context, caller Caller, id string, req *request.PatchListingRequest) (*response.ListingResponse, error) {
	listing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeListing(caller, listing, ActionWrite); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalidFields(errs)
	}

	if req.Name != nil {
		listing.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Location != nil {
		listing.Location = strings.TrimSpace(*req.Location)
	}
	if req.PricePerNight != nil {
		if err := checkPrice(*req.PricePerNight); err != nil {
			return nil, err
		}
		listing.PricePerNight = *req.PricePerNight
	}

	return s.save(ctx, listing)
}

// DeleteListing refuses to drop a listing while any of its bookings carries a
// pending or completed payment.
func (s *listingService) DeleteListing(ctx context.Context, caller Caller, id string) error {
	listing, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := AuthorizeListing(caller, listing, ActionDelete); err != nil {
		return err
	}

	deleted, err := s.repo.Listing.DeleteIfUnpaid(ctx, listing.ID)
	if err != nil {
		return internal("delete listing", err)
	}
	if !deleted {
		// Either a booking holds a live or settled payment, or the row is already gone.
		current, err := s.repo.Listing.FindByID(ctx, listing.ID)
		if err != nil {
			return internal("find listing", err)
		}
		if current == nil {
			return notFound("listing")
		}
		return invalid("listing has bookings with pending or completed payments and cannot be deleted")
	}

	s.log.Info("Listing deleted",
		zap.String("listing_id", listing.ID.String()),
		zap.String("host_id", caller.ID.String()),
	)
	return nil
}

func (s *listingService) find(ctx context.Context, id string) (*entity.Listing, error) {
	listingID, err := uuid.Parse(id)
	if err != nil {
		return nil, notFound("listing")
	}
	listing, err := s.repo.Listing.FindByID(ctx, listingID)
	if err != nil {
		return nil, internal("find listing", err)
	}
	if listing == nil {
		return nil, notFound("listing")
	}
	return listing, nil
}

func (s *listingService) save(ctx context.Context, listing *entity.Listing) (*response.ListingResponse, error) {
	listing.UpdatedAt = time.Now()
	if err := s.repo.Listing.Update(ctx, listing); err != nil {
		return nil, internal("update listing", err)
	}

	s.log.Info("Listing updated", zap.String("listing_id", listing.ID.String()))

	resp := response.ListingToResponse(listing)
	return &resp, nil
}

func validateListing(req *request.ListingRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return invalidFields(errs)
	}
	return checkPrice(*req.PricePerNight)
}

// maxPrice matches the NUMERIC(12,2) column.
var maxPrice = decimal.New(1, 10)

func checkPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return invalidField("price_per_night", "Must be zero or greater")
	}
	if !price.LessThan(maxPrice) {
		return invalidField("price_per_night", "Must be less than 10000000000")
	}
	if !price.Equal(price.Round(2)) {
		return invalidField("price_per_night", "At most 2 decimal places")
	}
	return nil
}
