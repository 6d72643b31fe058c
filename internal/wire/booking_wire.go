package wire

import (
	"net/http"

	"stayhub/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	paymentHandler *adaptor.PaymentHandler,
	auth func(http.Handler) http.Handler,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	// Every booking route is scoped to the caller's own bookings
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(auth)

		r.Get("/", bookingHandler.ListBookings)
		r.Post("/", bookingHandler.CreateBooking)
		r.Get("/{id}", bookingHandler.GetBooking)
		r.Put("/{id}", bookingHandler.UpdateBooking)
		r.Patch("/{id}", bookingHandler.PatchBooking)
		r.Delete("/{id}", bookingHandler.DeleteBooking)

		// GET /api/bookings/{id}/payments - payment attempts for one booking
		r.Get("/{id}/payments", paymentHandler.ListBookingPayments)
	})
}
