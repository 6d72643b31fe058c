package adaptor

import (
	"net/http"

	"stayhub/internal/dto/request"
	"stayhub/internal/usecase"
	"stayhub/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ListingHandler struct {
	service usecase.ListingService
	log     *zap.Logger
}

func NewListingHandler(service usecase.ListingService, log *zap.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		log:     log.With(zap.String("handler", "listing")),
	}
}

// ListListings handles GET /api/listings (public)
func (h *ListingHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.ListingQuery{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), request.DefaultPerPage),
		},
		Name:     query.Get("name"),
		Location: query.Get("location"),
		MinPrice: query.Get("min_price"),
		MaxPrice: query.Get("max_price"),
		HostID:   query.Get("host_id"),
		Search:   query.Get("search"),
		Ordering: query.Get("ordering"),
	}

	listings, err := h.service.ListListings(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list listings", http.StatusInternalServerError)
		return
	}

	utils.ResponseSuccess(w, "success", listings)
}

// GetListing handles GET /api/listings/{id} (public)
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get listing", http.StatusInternalServerError)
		return
	}

	utils.ResponseSuccess(w, "success", listing)
}

// CreateListing handles POST /api/listings (protected)
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req request.ListingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	listing, err := h.service.CreateListing(r.Context(), usecase.CallerFromContext(r.Context()), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create listing", http.StatusInternalServerError)
		return
	}

	utils.ResponseCreated(w, "Listing created", listing)
}

// UpdateListing handles PUT /api/listings/{id} (host only)
func (h *ListingHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	var req request.ListingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	listing, err := h.service.UpdateListing(r.Context(), usecase.CallerFromContext(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update listing", http.StatusInternalServerError)
		return
	}

	utils.ResponseSuccess(w, "Listing updated", listing)
}

// PatchListing handles PATCH /api/listings/{id} (host only)
func (h *ListingHandler) PatchListing(w http.ResponseWriter, r *http.Request) {
	var req request.PatchListingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	listing, err := h.service.PatchListing(r.Context(), usecase.CallerFromContext(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "patch listing", http.StatusInternalServerError)
		return
	}

	utils.ResponseSuccess(w, "Listing updated", listing)
}

// DeleteListing handles DELETE /api/listings/{id} (host only)
func (h *ListingHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteListing(r.Context(), usecase.CallerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "delete listing", http.StatusInternalServerError)
		return
	}

	utils.ResponseNoContent(w)
}
