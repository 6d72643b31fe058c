package response

import (
	"encoding/json"
	"time"

	"stayhub/internal/data/entity"
)

type InitiatePaymentResponse struct {
	CheckoutURL string `json:"checkout_url"`
	TxRef       string `json:"tx_ref"`
}

// VerifyPaymentResponse carries the local status and, when the gateway was
// consulted on this call, its raw verify body.
type VerifyPaymentResponse struct {
	Status        entity.PaymentStatus `json:"status"`
	ChapaResponse json.RawMessage      `json:"chapa_response"`
}

type PaymentResponse struct {
	ID                 string               `json:"id"`
	BookingID          string               `json:"booking_id"`
	Amount             string               `json:"amount"`
	TxRef              string               `json:"tx_ref"`
	CheckoutURL        string               `json:"checkout_url,omitempty"`
	ChapaTransactionID *string              `json:"chapa_transaction_id"`
	Status             entity.PaymentStatus `json:"status"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

func PaymentToResponse(payment *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                 payment.ID.String(),
		BookingID:          payment.BookingID.String(),
		Amount:             payment.Amount.StringFixed(2),
		TxRef:              payment.TxRef,
		CheckoutURL:        payment.CheckoutURL,
		ChapaTransactionID: payment.ChapaTransactionID,
		Status:             payment.Status,
		CreatedAt:          payment.CreatedAt,
		UpdatedAt:          payment.UpdatedAt,
	}
}
