package wire

import (
	"net/http"

	"stayhub/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireListing(r chi.Router, listingHandler *adaptor.ListingHandler, auth func(http.Handler) http.Handler) {
	r.Route("/api/listings", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Get("/", listingHandler.ListListings)
		r.Get("/{id}", listingHandler.GetListing)

		// ==================== PROTECTED ROUTES ====================
		// Host-only checks happen in the service
		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Post("/", listingHandler.CreateListing)
			r.Put("/{id}", listingHandler.UpdateListing)
			r.Patch("/{id}", listingHandler.PatchListing)
			r.Delete("/{id}", listingHandler.DeleteListing)
		})
	})
}
