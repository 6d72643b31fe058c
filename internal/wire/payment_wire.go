package wire

import (
	"net/http"

	"stayhub/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	auth func(http.Handler) http.Handler,
	optional func(http.Handler) http.Handler,
) {
	r.Route("/api/payments", func(r chi.Router) {
		// ==================== CALLBACK ROUTE ====================
		// The gateway calls this without a token; owners may call it with one
		r.With(optional).Get("/verify/{tx_ref}", paymentHandler.VerifyPayment)

		// ==================== PROTECTED ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Post("/{booking_id}/initiate", paymentHandler.InitiatePayment)
			r.Get("/{tx_ref}", paymentHandler.GetPayment)
		})
	})
}
