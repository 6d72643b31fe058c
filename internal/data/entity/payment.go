package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// CanTransitionTo allows only pending -> completed and pending -> failed.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	return s == PaymentStatusPending && target.IsTerminal()
}

type Payment struct {
	Base
	BookingID          uuid.UUID       `db:"booking_id"`
	Amount             decimal.Decimal `db:"amount"`
	TxRef              string          `db:"tx_ref"`
	CheckoutURL        string          `db:"checkout_url"`
	ChapaTransactionID *string         `db:"chapa_transaction_id"`
	Status             PaymentStatus   `db:"status"`
}
