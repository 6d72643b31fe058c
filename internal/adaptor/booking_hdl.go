package adaptor

import (
	"net/http"

	"stayhub/internal/dto/request"
	"stayhub/internal/usecase"
	"stayhub/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// ListBookings handles GET /api/bookings (protected, own bookings only)
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.BookingQuery{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), request.DefaultPerPage),
		},
		Status:     query.Get("status"),
		PropertyID: query.Get("property_id"),
		Ordering:   query.Get("ordering"),
	}

	bookings, err := h.service.ListBookings(r.Context(), usecase.CallerFromContext(r.Context()), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list bookings", http.StatusInternalServerError)
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetBooking handles GET /api/bookings/{id} (owner only)
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.service.GetBooking(r.Context(), usecase.CallerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get booking", http.StatusInternalServerError)
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// CreateBooking handles POST /api/bookings (protected)
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req request.BookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), usecase.CallerFromContext(r.Context()), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create booking", http.StatusInternalServerError)
		return
	}

	utils.ResponseCreated(w, "Booking created", booking)
}

// UpdateBooking handles PUT /api/bookings/{id} (owner only)
func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var req request.BookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.UpdateBooking(r.Context(), usecase.CallerFromContext(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update booking", http.StatusInternalServerError)
		return
	}

	utils.ResponseSuccess(w, "Booking updated", booking)
}

// PatchBooking handles PATCH /api/bookings/{id} (owner only)
func (h *BookingHandler) PatchBooking(w http.ResponseWriter, r *http.Request) {
	var req request.PatchBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.PatchBooking(r.Context(), usecase.CallerFromContext(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "patch booking", http.StatusInternalServerError)
		return
	}

	utils.ResponseSuccess(w, "Booking updated", booking)
}

// DeleteBooking handles DELETE /api/bookings/{id} (owner only)
func (h *BookingHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBooking(r.Context(), usecase.CallerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "delete booking", http.StatusInternalServerError)
		return
	}

	utils.ResponseNoContent(w)
}
