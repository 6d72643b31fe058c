package adaptor

import (
	"net/http"

	"stayhub/internal/dto/request"
	"stayhub/internal/usecase"
	"stayhub/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// InitiatePayment handles POST /api/payments/{booking_id}/initiate (owner only)
func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.InitiatePayment(r.Context(), usecase.CallerFromContext(r.Context()), chi.URLParam(r, "booking_id"))
	if err != nil {
		handleServiceError(w, h.log, err, "initiate payment", http.StatusBadRequest)
		return
	}

	utils.ResponseSuccess(w, "Payment initiated", resp)
}

// VerifyPayment handles GET /api/payments/verify/{tx_ref}.
// Also the gateway callback target, so authentication is optional.
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.VerifyPaymentRequest{
		TxRef:  chi.URLParam(r, "tx_ref"),
		TrxRef: query.Get("trx_ref"),
		RefID:  query.Get("ref_id"),
		Status: query.Get("status"),
	}

	resp, err := h.service.VerifyPayment(r.Context(), usecase.CallerFromContext(r.Context()), req)
	if err != nil {
		handleServiceError(w, h.log, err, "verify payment", http.StatusInternalServerError)
		return
	}

	utils.ResponseSuccess(w, "success", resp)
}

// GetPayment handles GET /api/payments/{tx_ref} (owner only)
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetPayment(r.Context(), usecase.CallerFromContext(r.Context()), chi.URLParam(r, "tx_ref"))
	if err != nil {
		handleServiceError(w, h.log, err, "get payment", http.StatusInternalServerError)
		return
	}

	utils.ResponseSuccess(w, "success", resp)
}

// ListBookingPayments handles GET /api/bookings/{id}/payments (owner only)
func (h *PaymentHandler) ListBookingPayments(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ListBookingPayments(r.Context(), usecase.CallerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "list booking payments", http.StatusInternalServerError)
		return
	}

	utils.ResponseSuccess(w, "success", resp)
}
