// Package notification moves domain events to the broker and turns them
// into emails in the worker process.
package notification

import (
	"encoding/json"
	"fmt"
)

const (
	RKBookingCreated   = "booking.created"
	RKPaymentCompleted = "payment.completed"
)

// Event is one message for the broker. Key is the routing key.
type Event struct {
	Key     string
	Payload interface{}
}

type BookingCreated struct {
	UserEmail string `json:"user_email"`
	BookingID string `json:"booking_id"`
}

type PaymentCompleted struct {
	UserEmail string `json:"user_email"`
	PaymentID string `json:"payment_id"`
}

func NewBookingCreated(userEmail, bookingID string) Event {
	return Event{Key: RKBookingCreated, Payload: BookingCreated{UserEmail: userEmail, BookingID: bookingID}}
}

func NewPaymentCompleted(userEmail, paymentID string) Event {
	return Event{Key: RKPaymentCompleted, Payload: PaymentCompleted{UserEmail: userEmail, PaymentID: paymentID}}
}

func decode[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
