// Package gateway talks to the external payment gateway.
package gateway

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUnavailable covers transport failures, timeouts and unreadable
// responses. The outcome of the call is unknown to the caller.
var ErrUnavailable = errors.New("payment gateway unavailable")

type Customization struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type InitializeRequest struct {
	Amount        decimal.Decimal
	Currency      string
	Email         string
	FirstName     string
	LastName      string
	TxRef         string
	CallbackURL   string
	ReturnURL     string
	Customization Customization
}

type InitializeResult struct {
	// Success is true only when the gateway accepted the transaction.
	Success     bool
	CheckoutURL string
	// Payload is the raw gateway body, surfaced to clients on rejection.
	Payload json.RawMessage
}

type VerifyResult struct {
	// Success reflects the envelope status of the verify call itself.
	Success bool
	// Status is the transaction status reported in data.status.
	Status string
	// Reference is the gateway's own transaction id, when present.
	Reference string
	Payload   json.RawMessage
}

type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, txRef string) (*VerifyResult, error)
}
