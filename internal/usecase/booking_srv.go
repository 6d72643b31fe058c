package usecase

import (
	"context"
	"time"

	"stayhub/internal/data/entity"
	"stayhub/internal/data/repository"
	"stayhub/internal/dto/request"
	"stayhub/internal/dto/response"
	"stayhub/internal/notification"
	"stayhub/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	ListBookings(ctx context.Context, caller Caller, query *request.BookingQuery) (*response.PaginatedResponse[response.BookingResponse], error)
	GetBooking(ctx context.Context, caller Caller, id string) (*response.BookingResponse, error)
	CreateBooking(ctx context.Context, caller Caller, req *request.BookingRequest) (*response.BookingResponse, error)
	UpdateBooking(ctx context.Context, caller Caller, id string, req *request.BookingRequest) (*response.BookingResponse, error)
	PatchBooking(ctx context.Context, caller Caller, id string, req *request.PatchBookingRequest) (*response.BookingResponse, error)
	DeleteBooking(ctx context.Context, caller Caller, id string) error
}

type bookingService struct {
	repo       *repository.Repository
	dispatcher notification.Dispatcher
	now        func() time.Time
	log        *zap.Logger
}

func NewBookingService(repo *repository.Repository, dispatcher notification.Dispatcher, log *zap.Logger) BookingService {
	return &bookingService{
		repo:       repo,
		dispatcher: dispatcher,
		now:        time.Now,
		log:        log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) ListBookings(ctx context.Context, caller Caller, query *request.BookingQuery) (*response.PaginatedResponse[response.BookingResponse], error) {
	if !caller.Authenticated {
		return nil, ErrUnauthorized
	}
	if errs := utils.ValidateStruct(query); len(errs) > 0 {
		return nil, invalidFields(errs)
	}
	if !repository.ValidOrdering(query.Ordering, repository.BookingOrderings) {
		return nil, invalidField("ordering", "Unsupported ordering")
	}
	query.Normalize()

	filter := repository.BookingFilter{UserID: caller.ID, Ordering: query.Ordering}
	if query.Status != "" {
		status := entity.BookingStatus(query.Status)
		filter.Status = &status
	}
	if query.PropertyID != "" {
		propertyID, err := uuid.Parse(query.PropertyID)
		if err != nil {
			return nil, invalidField("property_id", "Must be a valid UUID")
		}
		filter.PropertyID = &propertyID
	}

	bookings, err := s.repo.Booking.FindByUserID(ctx, filter, query.Offset(), query.Limit())
	if err != nil {
		return nil, internal("list bookings", err)
	}
	total, err := s.repo.Booking.CountByUserID(ctx, filter)
	if err != nil {
		return nil, internal("count bookings", err)
	}

	results := make([]response.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		results = append(results, response.BookingToResponse(booking))
	}

	return response.NewPaginatedResponse(results, query.Page, query.Limit(), total), nil
}

func (s *bookingService) GetBooking(ctx context.Context, caller Caller, id string) (*response.BookingResponse, error) {
	booking, err := s.findOwned(ctx, caller, id, ActionRead)
	if err != nil {
		return nil, err
	}
	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, caller Caller, req *request.BookingRequest) (*response.BookingResponse, error) {
	if !caller.Authenticated {
		return nil, ErrUnauthorized
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalidFields(errs)
	}

	start, end, err := s.checkDates(req.StartDate, req.EndDate, true, true)
	if err != nil {
		return nil, err
	}

	listing, err := s.findListing(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		PropertyID: listing.ID,
		UserID:     caller.ID,
		StartDate:  start,
		EndDate:    end,
		TotalPrice: entity.PriceFor(start, end, listing.PricePerNight),
		Status:     entity.BookingStatusPending,
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		return nil, internal("create booking", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("property_id", listing.ID.String()),
		zap.String("user_id", caller.ID.String()),
		zap.String("total_price", booking.TotalPrice.StringFixed(2)),
	)

	if email := s.recipient(ctx, caller); email != "" {
		s.dispatcher.Enqueue(ctx, notification.NewBookingCreated(email, booking.ID.String()))
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, caller Caller, id string, req *request.BookingRequest) (*response.BookingResponse, error) {
	booking, err := s.findOwned(ctx, caller, id, ActionWrite)
	if err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalidFields(errs)
	}

	return s.apply(ctx, booking, &req.PropertyID, &req.StartDate, &req.EndDate, req.Status)
}

func (s *bookingService) PatchBooking(ctx context.Context, caller Caller, id string, req *request.PatchBookingRequest) (*response.BookingResponse, error) {
	booking, err := s.findOwned(ctx, caller, id, ActionWrite)
	if err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalidFields(errs)
	}

	return s.apply(ctx, booking, req.PropertyID, req.StartDate, req.EndDate, req.Status)
}

// DeleteBooking refuses to drop a booking that has a completed payment.
func (s *bookingService) DeleteBooking(ctx context.Context, caller Caller, id string) error {
	booking, err := s.findOwned(ctx, caller, id, ActionDelete)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Booking.DeleteIfUnpaid(ctx, booking.ID)
	if err != nil {
		return internal("delete booking", err)
	}
	if !deleted {
		paid, err := s.repo.Payment.HasCompletedByBookingID(ctx, booking.ID)
		if err != nil {
			return internal("check booking payments", err)
		}
		if paid {
			return invalid("booking has a completed payment and cannot be deleted")
		}
		return notFound("booking")
	}

	s.log.Info("Booking deleted",
		zap.String("booking_id", booking.ID.String()),
		zap.String("user_id", caller.ID.String()),
	)
	return nil
}

// apply merges the given fields into booking, re-validating dates that
// changed and recomputing the price when the stay or listing changed.
// A booking whose price is already committed to a payment cannot be repriced.
func (s *bookingService) apply(ctx context.Context, booking *entity.Booking, propertyID, startDate, endDate, status *string) (*response.BookingResponse, error) {
	start, end := booking.StartDate, booking.EndDate
	startChanged, endChanged := false, false

	if startDate != nil {
		d, err := utils.ParseDate(*startDate)
		if err != nil {
			return nil, invalidField("start_date", "Must be a date in 2006-01-02 format")
		}
		startChanged = !d.Equal(utils.TruncateDate(start))
		start = d
	}
	if endDate != nil {
		d, err := utils.ParseDate(*endDate)
		if err != nil {
			return nil, invalidField("end_date", "Must be a date in 2006-01-02 format")
		}
		endChanged = !d.Equal(utils.TruncateDate(end))
		end = d
	}
	if err := s.validateRange(start, end, startChanged, endChanged); err != nil {
		return nil, err
	}

	listingChanged := false
	var listing *entity.Listing
	if propertyID != nil && *propertyID != booking.PropertyID.String() {
		l, err := s.findListing(ctx, *propertyID)
		if err != nil {
			return nil, err
		}
		listing, listingChanged = l, true
	}

	if listingChanged || startChanged || endChanged {
		if err := s.checkRepriceable(ctx, booking.ID); err != nil {
			return nil, err
		}
		if listing == nil {
			l, err := s.repo.Listing.FindByID(ctx, booking.PropertyID)
			if err != nil {
				return nil, internal("find listing", err)
			}
			if l == nil {
				return nil, invalidField("property_id", "Listing does not exist")
			}
			listing = l
		}
		booking.PropertyID = listing.ID
		booking.StartDate = start
		booking.EndDate = end
		booking.TotalPrice = entity.PriceFor(start, end, listing.PricePerNight)
	}

	if status != nil {
		booking.Status = entity.BookingStatus(*status)
	}
	booking.UpdatedAt = s.now()

	if err := s.repo.Booking.Update(ctx, booking); err != nil {
		return nil, internal("update booking", err)
	}

	s.log.Info("Booking updated",
		zap.String("booking_id", booking.ID.String()),
		zap.String("status", string(booking.Status)),
		zap.String("total_price", booking.TotalPrice.StringFixed(2)),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// checkRepriceable rejects stay or listing changes once a payment for the
// current total is pending at the gateway or completed.
func (s *bookingService) checkRepriceable(ctx context.Context, bookingID uuid.UUID) error {
	paid, err := s.repo.Payment.HasCompletedByBookingID(ctx, bookingID)
	if err != nil {
		return internal("check booking payments", err)
	}
	if paid {
		return invalid("booking has a completed payment; dates and property cannot change")
	}
	pending, err := s.repo.Payment.FindPendingByBookingID(ctx, bookingID)
	if err != nil {
		return internal("check booking payments", err)
	}
	if pending != nil {
		return invalid("booking has a pending payment; dates and property cannot change")
	}
	return nil
}

func (s *bookingService) checkDates(startDate, endDate string, checkStart, checkEnd bool) (time.Time, time.Time, error) {
	start, err := utils.ParseDate(startDate)
	if err != nil {
		return time.Time{}, time.Time{}, invalidField("start_date", "Must be a date in 2006-01-02 format")
	}
	end, err := utils.ParseDate(endDate)
	if err != nil {
		return time.Time{}, time.Time{}, invalidField("end_date", "Must be a date in 2006-01-02 format")
	}
	if err := s.validateRange(start, end, checkStart, checkEnd); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// validateRange requires end >= start, and checked dates to be today or later.
func (s *bookingService) validateRange(start, end time.Time, checkStart, checkEnd bool) error {
	today := utils.TruncateDate(s.now())
	fields := map[string]string{}

	if checkStart && start.Before(today) {
		fields["start_date"] = "Start date cannot be in the past"
	}
	if checkEnd && end.Before(today) {
		fields["end_date"] = "End date cannot be in the past"
	}
	if end.Before(start) {
		fields["end_date"] = "End date must be on or after start date"
	}
	if len(fields) > 0 {
		return invalidFields(fields)
	}
	return nil
}

func (s *bookingService) findListing(ctx context.Context, id string) (*entity.Listing, error) {
	listingID, err := uuid.Parse(id)
	if err != nil {
		return nil, invalidField("property_id", "Must be a valid UUID")
	}
	listing, err := s.repo.Listing.FindByID(ctx, listingID)
	if err != nil {
		return nil, internal("find listing", err)
	}
	if listing == nil {
		return nil, invalidField("property_id", "Listing does not exist")
	}
	return listing, nil
}

func (s *bookingService) findOwned(ctx context.Context, caller Caller, id string, action Action) (*entity.Booking, error) {
	if !caller.Authenticated {
		return nil, ErrUnauthorized
	}
	bookingID, err := uuid.Parse(id)
	if err != nil {
		return nil, notFound("booking")
	}
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, internal("find booking", err)
	}
	if booking == nil {
		return nil, notFound("booking")
	}
	if err := AuthorizeBooking(caller, booking, action); err != nil {
		return nil, err
	}
	return booking, nil
}

// recipient prefers the email in the token and falls back to the user row.
func (s *bookingService) recipient(ctx context.Context, caller Caller) string {
	if caller.Email != "" {
		return caller.Email
	}
	user, err := s.repo.User.FindByID(ctx, caller.ID)
	if err != nil || user == nil {
		s.log.Warn("No recipient for booking notification", zap.String("user_id", caller.ID.String()))
		return ""
	}
	return user.Email
}
